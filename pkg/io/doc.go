// Package io provides JSON and YAML import and export for org chart records.
//
// # Overview
//
// A data file is a flat list of records, one per node. The tree is implied
// by parent references and built later by pkg/tree. The format is designed
// for:
//
//   - Hand-written org charts (YAML is friendlier to edit)
//   - Exports from HR systems and spreadsheets (JSON)
//   - Round-tripping the data the preview server currently shows
//
// # Format
//
// The top level is either an array of records or an object whose "records"
// (or "data") field holds that array:
//
//	[
//	  {"id": "O-1", "template": "<div>CEO</div>"},
//	  {"id": "O-2", "parentId": "O-1", "template": "<div>CTO</div>", "width": 300},
//	  {"nodeId": "O-3", "parentNodeId": "O-1", "expanded": true}
//	]
//
// # Record Fields
//
// Required:
//   - id (or nodeId): unique identifier; numbers are converted to strings
//
// Optional:
//   - parentId (or parentNodeId): identifier of the parent; omitted, null or
//     empty marks the root
//   - template: opaque HTML drawn inside the card
//   - expanded: initially expand the node and its ancestors
//
// Every other field is kept in the record payload, where pkg/geometry picks
// up styling fields such as width, borderColor or nodeImage.
//
// # Import
//
// Use [ImportRecords] to read a file (the format follows the extension) or
// [ReadRecords] to read from any io.Reader:
//
//	records, err := io.ImportRecords("org.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Import checks record shape only. Structural rules (single root, known
// parents, no cycles) are enforced by tree.Build.
//
// # Export
//
// Use [ExportRecords] or [WriteRecords] to write records back out. Payload
// fields are flattened next to the identity fields so the output reads the
// same way the input did.
package io
