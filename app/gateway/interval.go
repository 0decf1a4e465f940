package gateway

// The host expresses billing periods as day/week/month/quarter/year; the
// vendor wants daily/weekly/monthly/quarterly/yearly. Values outside the
// table pass through unchanged so a new vendor term never breaks a charge.

var vendorIntervalByPeriod = map[string]string{
	"day":     "daily",
	"week":    "weekly",
	"month":   "monthly",
	"quarter": "quarterly",
	"year":    "yearly",
}

var hostPeriodByInterval = map[string]string{
	"daily":     "day",
	"weekly":    "week",
	"monthly":   "month",
	"quarterly": "quarter",
	"yearly":    "year",
}

func VendorInterval(period string) string {
	if interval, ok := vendorIntervalByPeriod[period]; ok {
		return interval
	}
	return period
}

func HostPeriod(interval string) string {
	if period, ok := hostPeriodByInterval[interval]; ok {
		return period
	}
	return interval
}
