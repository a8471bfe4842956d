// Package core provides the ingestion and analysis pipeline for fleet
// telemetry reports.
//
// This package holds all domain logic independent of any UI or transport
// layer. It is used by the web server, the fleetcheck CLI and tests alike.
//
// # Pipeline
//
// Each uploaded file flows through the same stages:
//
//  1. A [Decoder], chosen by file extension, turns bytes into a [Document]:
//     a cell grid, field/value records or free-text fragments.
//  2. [ExtractRows], [ExtractRecords] or [ExtractFreeText] find the vehicle
//     table and convert each line into a [CanonicalRow]. Header cells are
//     matched against an alias table by [ResolveHeader]; numbers and
//     durations go through [ParseDecimal] and [ParseDuration].
//  3. [ExtractPeriod] looks for the reporting period near the top of a grid.
//  4. [Aggregate] sums rows per vehicle using the chosen [DistanceSource].
//  5. [Analyze] flags low-mileage vehicles and idle time over the allowance.
//
// # Sessions
//
// A [Session] accumulates the rows of one user's uploads. Files of a batch
// are decoded one at a time, in order. A decode failure is reported in the
// [BatchReport] and does not stop the batch. The [Service] keeps sessions in
// memory, caps concurrent batches with a [BatchLimiter] and drops idle
// sessions from a janitor loop.
//
// # Decoders
//
// Decoders register themselves by extension at init time:
//
//	core.RegisterDecoder(".xlsx", core.DecoderFunc(decodeXLSX))
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a code for support reference:
//
//   - FILE001-FILE005: file errors (size, format, encoding, empty)
//   - ANL001-ANL003: analysis errors (no rows, invalid settings)
//   - EXP001-EXP002: export errors
//   - SES001, UPL001-UPL005: session and upload errors
package core
