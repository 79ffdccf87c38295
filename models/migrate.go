package models

// All lists every table the service owns, in AutoMigrate order.
func All() []any {
	return []any{
		&GameSession{},
		&SessionSlot{},
		&CooldownMark{},
		&PointAccount{},
		&PointsLedgerEntry{},
		&DailyStats{},
		&ExchangeRecord{},
		&SpinRecord{},
	}
}
