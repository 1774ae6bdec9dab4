package domain

// RequestType configures a category of verification work, including its
// SLA budgets and extension policy.
type RequestType struct {
	ID                 string
	Name               string
	Description        string
	SLAHours           float64
	CompletionSLAHours float64
	AllowExtension     bool
	ExtensionHours     float64
	PricingTiers       []PricingOption
	IsActive           bool
}
