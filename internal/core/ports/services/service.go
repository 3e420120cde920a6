package services

// ServiceContainer holds instances of all the application services. It is the
// single wiring point handed to collaborators at startup; nothing retrieves a
// "current instance" globally.
type ServiceContainer struct {
	Ledger      LedgerSvcFacade
	Currency    CurrencySvcFacade
	Leaderboard LeaderboardReaderSvc
}
