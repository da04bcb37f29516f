// Package model defines the entity graph that the decision engine and
// importer operate on: Vendor, Platform, Configuration, Machine, Release,
// Certificate, Kernel, Bios, Report, Device and CpuId. Every entity carries
// a surrogate integer identity plus the business key called out in its
// comment; no entity is deleted by the core, and updates are limited to the
// handful named in the repository package.
//
// Every field carries a `db` tag naming its column: sqlx's default
// NameMapper only lowercases a Go field name, it does not split
// camel-case into snake_case, so a tagless VendorID would never match
// the vendor_id column the schema actually declares.
package model

import "time"

// Vendor is matched case-insensitively on its normalized name; see
// package normalize.
type Vendor struct {
	ID   int64  `db:"id"`
	Name string `db:"name"`
}

// Platform is scoped to a Vendor; its business key is (Name, VendorID).
type Platform struct {
	ID       int64  `db:"id"`
	VendorID int64  `db:"vendor_id"`
	Name     string `db:"name"`
}

// Configuration is scoped to a Platform; its business key is (Name,
// PlatformID).
type Configuration struct {
	ID         int64  `db:"id"`
	PlatformID int64  `db:"platform_id"`
	Name       string `db:"name"`
}

// Machine is the durable record of a physical hardware bundle. CanonicalID
// is the globally unique identifier assigned by the upstream certification
// system and is the only business key that matters outside this store.
type Machine struct {
	ID              int64  `db:"id"`
	ConfigurationID int64  `db:"configuration_id"`
	CanonicalID     string `db:"canonical_id"`
}

// Release is an Ubuntu release. ReleaseStr has any trailing "LTS" token
// stripped on ingest (spec invariant: "22.04 LTS" -> "22.04").
type Release struct {
	ID             int64      `db:"id"`
	Codename       string     `db:"codename"`
	ReleaseStr     string     `db:"release_str"`
	ReleaseDate    *time.Time `db:"release_date"`
	SupportedUntil *time.Time `db:"supported_until"`
	IVersion       int        `db:"i_version"`
}

// Certificate asserts that a Machine passed certification against a
// Release. Name is the upstream certificate identifier and is unique.
type Certificate struct {
	ID          int64      `db:"id"`
	MachineID   int64      `db:"machine_id"`
	ReleaseID   int64      `db:"release_id"`
	Name        string     `db:"name"`
	CreatedAt   *time.Time `db:"created_at"`
	CompletedAt *time.Time `db:"completed_at"`
}

// Kernel describes the kernel a Report was taken under. All fields are
// optional except Version.
type Kernel struct {
	ID        int64  `db:"id"`
	Name      string `db:"name"`
	Version   string `db:"version"`
	Signature string `db:"signature"`
}

// Bios belongs to a Vendor. Two Bios rows with identical (VendorID,
// Version) are permitted and distinguished, if at all, by Revision or
// FirmwareRevision.
type Bios struct {
	ID               int64      `db:"id"`
	VendorID         int64      `db:"vendor_id"`
	Version          string     `db:"version"`
	Revision         string     `db:"revision"`
	FirmwareRevision string     `db:"firmware_revision"`
	ReleaseDate      *time.Time `db:"release_date"`
}

// Report ties a Certificate to an architecture string, an optional Kernel,
// an optional Bios, and (via the association table) a set of Devices.
type Report struct {
	ID            int64  `db:"id"`
	CertificateID int64  `db:"certificate_id"`
	KernelID      *int64 `db:"kernel_id"`
	BiosID        *int64 `db:"bios_id"`
	Architecture  string `db:"architecture"`
}

// DeviceCategory enumerates the device classification used by the
// decision engine's CPU lookup and board lookup, plus the categories the
// upstream device-instances endpoint supplies (see
// internal/certengine.DeviceCategory for the full vocabulary retained from
// the pre-distillation implementation).
type DeviceCategory string

const (
	CategoryProcessor DeviceCategory = "PROCESSOR"
	CategoryBoard     DeviceCategory = "BOARD"
	CategoryOther     DeviceCategory = "OTHER"
)

// Device belongs to a Vendor. Identifier is a lowercased hex-pair or DMI
// key; Category narrows the matching rules the repository applies
// (§4.3: board lookup requires BOARD or OTHER).
type Device struct {
	ID             int64          `db:"id"`
	VendorID       int64          `db:"vendor_id"`
	Identifier     string         `db:"identifier"`
	Name           string         `db:"name"`
	SubproductName string         `db:"subproduct_name"`
	DeviceType     string         `db:"device_type"`
	Bus            string         `db:"bus"`
	Version        string         `db:"version"`
	Subsystem      string         `db:"subsystem"`
	Category       DeviceCategory `db:"category"`
	Codename       string         `db:"codename"`
}

// CpuId is a stored hex-fragment -> codename mapping. IDPattern is
// lowercase and matched as a substring, never a prefix or exact key (see
// package cpuid).
type CpuId struct {
	ID        int64  `db:"id"`
	IDPattern string `db:"id_pattern"`
	Codename  string `db:"codename"`
}
