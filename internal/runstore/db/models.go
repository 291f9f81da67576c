package db

type Run struct {
	ID               string
	StartedAt        int64
	FinishedAt       int64
	Strategy         string
	DryRun           bool
	Candidates       int64
	FilteredOut      int64
	Attempted        int64
	Listed           int64
	NoMarketData     int64
	Failed           int64
	PricedDryRun     int64
	PartialInventory bool
	Interrupted      bool
}

type Outcome struct {
	RunID       string
	Seq         int64
	AssetID     int64
	Name        string
	Category    string
	State       string
	MarketPrice int64
	TargetPrice int64
	Reason      string
	Detail      string
}

type LicenseBinding struct {
	LicenseKey string
	Hwid       string
	BoundAt    int64
}
