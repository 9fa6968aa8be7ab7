// Package schema describes how a record type maps onto a table: its storage
// name, its ordered fields and the conversion between a record and its row
// of cells.
//
// Descriptors are built once per record type, either explicitly with Define
// and Bind or by reflection over struct tags with Reflect, and are immutable
// afterwards. Field order is fixed at construction and shared by Fields,
// Values and FromValues.
package schema
