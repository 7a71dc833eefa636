package model

import "time"

// BloodBank is a storage facility whose stock is tracked per blood
// type.  Banks are created by staff and referenced by donations.
//
// Fields:
//  ID        – primary key identifier.
//  Name      – unique bank name.
//  City      – city the bank operates in.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type BloodBank struct {
	ID        uint64    // blood_banks.id
	Name      string    // blood_banks.name
	City      string    // blood_banks.city
	CreatedAt time.Time // blood_banks.created_at
	UpdatedAt time.Time // blood_banks.updated_at
}

// InventoryRecord is the unit counter for one (bank, blood type)
// bucket.  Units is adjusted only through the inventory ledger: a
// guarded increment on completed donations and a guarded decrement for
// usage and expiry.  The counter can never go negative.
//
// Fields:
//  BloodBankID – owning bank.
//  BloodType   – bucket group; never UNKNOWN.
//  Units       – countable units currently available.
//  UpdatedAt   – last adjustment timestamp.
type InventoryRecord struct {
	BloodBankID uint64    // blood_inventory.blood_bank_id
	BloodType   BloodType // blood_inventory.blood_type
	Units       uint32    // blood_inventory.units
	UpdatedAt   time.Time // blood_inventory.updated_at
}
