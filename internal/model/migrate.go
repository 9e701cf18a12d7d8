package model

// All lists every persisted model in dependency order for AutoMigrate
func All() []interface{} {
	return []interface{}{
		&Privilege{},
		&Role{},
		&User{},
		&Account{},
		&Shipment{},
		&ShipmentInvestment{},
		&Batch{},
		&Transaction{},
		&Sale{},
		&SaleItem{},
		&WriteOff{},
		&PartnerWithdrawal{},
	}
}
