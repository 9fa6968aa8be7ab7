// Package ir provides the type-erased value representation shared by every
// layer of yoshino.
//
// This package contains the storage kinds, the Cell container and the row
// identity sum type. All other internal packages import ir; ir imports
// nothing internal.
//
// Key design constraints:
//   - A Cell owns its bytes; constructors and accessors copy
//   - Absence is an explicit flag, never a nil buffer
//   - The byte layout of a Cell is fully determined by its Kind
//   - Accessors fail with a checked error on kind mismatch
package ir
