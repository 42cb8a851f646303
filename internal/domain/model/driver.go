package model

import "time"

// Driver delivers assigned orders.
type Driver struct {
	ID          string
	Name        string      `validate:"required"`
	Phone       string
	TruckNumber string
	VehicleType VehicleType `validate:"omitempty,oneof=truck van hotshot"`
	IsActive    bool
	// LocalOnly drivers exist only in the in-memory cache and are never persisted.
	LocalOnly bool
	CreatedBy string
	CreatedAt time.Time
}

// Ref returns the tagged reference for the driver.
func (d Driver) Ref() DriverRef {
	if d.LocalOnly {
		return LocalOnlyDriver(d.ID)
	}
	return PersistedDriver(d.ID)
}

// DriverPatch holds optional driver field updates.
type DriverPatch struct {
	Name        *string
	Phone       *string
	TruckNumber *string
	VehicleType *VehicleType
	IsActive    *bool
}

// ApplyTo merges the patch into d.
func (p DriverPatch) ApplyTo(d Driver) Driver {
	if p.Name != nil {
		d.Name = *p.Name
	}
	if p.Phone != nil {
		d.Phone = *p.Phone
	}
	if p.TruckNumber != nil {
		d.TruckNumber = *p.TruckNumber
	}
	if p.VehicleType != nil {
		d.VehicleType = *p.VehicleType
	}
	if p.IsActive != nil {
		d.IsActive = *p.IsActive
	}
	return d
}

// PatchFrom builds a patch restoring every field p touches to the values in d.
func (p DriverPatch) PatchFrom(d Driver) DriverPatch {
	var back DriverPatch
	if p.Name != nil {
		back.Name = &d.Name
	}
	if p.Phone != nil {
		back.Phone = &d.Phone
	}
	if p.TruckNumber != nil {
		back.TruckNumber = &d.TruckNumber
	}
	if p.VehicleType != nil {
		back.VehicleType = &d.VehicleType
	}
	if p.IsActive != nil {
		back.IsActive = &d.IsActive
	}
	return back
}

type driverKind uint8

const (
	driverKindNone driverKind = iota
	driverKindPersisted
	driverKindLocalOnly
)

// DriverRef references a driver together with where it lives.
type DriverRef struct {
	id   string
	kind driverKind
}

// PersistedDriver references a driver stored by the persistence layer.
func PersistedDriver(id string) DriverRef {
	return DriverRef{id: id, kind: driverKindPersisted}
}

// LocalOnlyDriver references a driver that exists only in the local cache.
func LocalOnlyDriver(id string) DriverRef {
	return DriverRef{id: id, kind: driverKindLocalOnly}
}

// ID returns the driver identifier.
func (r DriverRef) ID() string { return r.id }

// IsLocalOnly reports whether writes for this driver must stay local.
func (r DriverRef) IsLocalOnly() bool { return r.kind == driverKindLocalOnly }

// IsZero reports whether the reference points nowhere.
func (r DriverRef) IsZero() bool { return r.kind == driverKindNone || r.id == "" }

func (r DriverRef) String() string {
	switch r.kind {
	case driverKindPersisted:
		return "persisted:" + r.id
	case driverKindLocalOnly:
		return "local:" + r.id
	}
	return "none"
}
