// Package frmr indexes the FedRAMP documentation corpus and answers
// read-only queries over it. The corpus mixes structured FRMR JSON records
// with free-text markdown guidance and lives in a versioned git repository.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., sqlite/, git/, fs/).
package frmr
