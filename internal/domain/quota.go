package domain

// APIQuota tracks one provider's daily call budget.
type APIQuota struct {
	Provider     ProviderTag `json:"provider"`
	DailyLimit   int         `json:"daily_limit"`
	CurrentUsage int         `json:"current_usage"`
}

// QuotaSnapshot is the ledger state persisted as a JSON blob under the
// translation-quotas key. LastReset is a calendar-day stamp (local time);
// when it differs from today every usage counter is discarded.
type QuotaSnapshot struct {
	Quotas    map[ProviderTag]*APIQuota `json:"quotas"`
	LastReset string                    `json:"last_reset"`
}

// Default daily limits. LibreTranslate is kept conservative because only
// public mirrors are assumed.
const (
	DefaultMyMemoryDailyLimit       = 1000
	DefaultLibreTranslateDailyLimit = 100
)

// DefaultQuotas returns a fresh ledger snapshot with zero usage.
func DefaultQuotas() map[ProviderTag]*APIQuota {
	return map[ProviderTag]*APIQuota{
		ProviderMyMemory: {
			Provider:   ProviderMyMemory,
			DailyLimit: DefaultMyMemoryDailyLimit,
		},
		ProviderLibreTranslate: {
			Provider:   ProviderLibreTranslate,
			DailyLimit: DefaultLibreTranslateDailyLimit,
		},
	}
}
