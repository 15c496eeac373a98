package shared

// Journal permissions declared for the authorization registry.
const (
	PermJournalSubmit  = "journal.submit"
	PermJournalView    = "journal.view"
	PermJournalViewAll = "journal.view_all"
	PermJournalEdit    = "journal.edit"
)

// JournalScopes lists all permissions related to the journal module.
func JournalScopes() []string {
	return []string{
		PermJournalSubmit,
		PermJournalView,
		PermJournalViewAll,
		PermJournalEdit,
	}
}
