// Package catalog indexes documentation content by component, version, module
// and family, and computes where every resource is written and published.
//
// Files arrive from the aggregator grouped by component version. Classify
// registers each version (keeping versions ordered newest first), classifies
// each file into a family by its location under modules/, derives its output
// path and URL from the active URL options, and rejects two files that claim
// the same resource ID. The finished Catalog is read by downstream consumers
// through GetByID, GetByPath and FindBy.
//
// Resource IDs are written as resource references:
//
//	version@component:module:family$relative
//
// with the ROOT module and the page family left empty and the empty version
// written as "_".
package catalog
