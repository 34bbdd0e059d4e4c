// Package io reads and writes terrace analysis reports and tree lists.
//
// # Reports
//
// A [Report] is the serializable outcome of one analysis:
//
//	{
//	  "root": "s3",
//	  "species": 5,
//	  "partitions": 2,
//	  "constraints": 2,
//	  "count": 15,
//	  "on_terrace": true,
//	  "compressed": "(s3,[...]);"
//	}
//
// count is an arbitrary-precision integer written as a JSON number. Fields
// of analyses that were not requested are omitted. Use [WriteJSON] and
// [ReadJSON] for streams and [ExportJSON] and [ImportJSON] for files.
//
// # Tree lists
//
// Enumerated terraces are written one Newick string per line. [ReadTrees]
// reads such a list back, skipping blank lines and lines starting with '#'.
package io
