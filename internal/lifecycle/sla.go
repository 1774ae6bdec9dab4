package lifecycle

import "time"

// urgentMultiplier halves the SLA budgets for urgent requests. The ratio
// is fixed, not configurable.
const urgentMultiplier = 0.5

// SLAConfig echoes the effective SLA budgets and extension policy applied
// to a request. It is derived per call, never persisted independently.
type SLAConfig struct {
	FindAgentHours    float64
	CompletionHours   float64
	AllowExtension    bool
	MaxExtensionHours float64
}

// Deadlines bundles the computed deadlines with the config they came from.
type Deadlines struct {
	FindAgentDeadline  time.Time
	CompletionDeadline time.Time
	Config             SLAConfig
}

// CalculateDeadlines derives the find-agent and completion deadlines from
// a request type's SLA policy, the creation time, and the urgency flag.
// The completion deadline is measured from creation and includes the
// find-agent window, not from assignment time.
func CalculateDeadlines(policy SLAPolicy, createdAt time.Time, isUrgent bool) Deadlines {
	multiplier := 1.0
	if isUrgent {
		multiplier = urgentMultiplier
	}

	findAgentHours := policy.SLAHours * multiplier
	completionHours := policy.CompletionSLAHours * multiplier

	return Deadlines{
		FindAgentDeadline:  createdAt.Add(hoursToDuration(findAgentHours)),
		CompletionDeadline: createdAt.Add(hoursToDuration(findAgentHours + completionHours)),
		Config: SLAConfig{
			FindAgentHours:    findAgentHours,
			CompletionHours:   completionHours,
			AllowExtension:    policy.AllowExtension,
			MaxExtensionHours: policy.ExtensionHours,
		},
	}
}

func hoursToDuration(hours float64) time.Duration {
	return time.Duration(hours * float64(time.Hour))
}
