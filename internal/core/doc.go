// Package core provides the business logic of the biomedical equipment
// card tracker.
//
// It holds all domain rules independent of transport and storage, so the
// HTTP server, the cardctl CLI and tests drive the same [Service].
//
// # Import
//
// [Service.ImportSpreadsheet] reads a workbook into a grid and hands it to
// [Service.ImportGrid], which runs three steps:
//
//  1. [LocateHeader] scans the first rows for one containing every name in
//     [RequiredColumns], compared through [NormalizeColumn]. A header
//     lacking a column is reported with the missing names.
//  2. [MakeColumnIndex] maps the located header with the same normalizer.
//  3. Each data row is saved as an Activo card. The [Store] rejects
//     (name, model, series) duplicates with [ErrDuplicateCard], which the
//     import reports as a skipped row; any other failure becomes a row
//     error and the batch continues.
//
// # History
//
// Every mutation appends an [Event] through the [Recorder]. Recording is
// best effort: a failed insert is logged and the mutation still succeeds.
// Events are also forwarded to any configured [EventSink].
//
// # Error Handling
//
// Technical errors are mapped to operator-facing messages with support
// codes by [MapError].
package core
