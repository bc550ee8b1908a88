// Package domain models the date-scoped records returned by the four public
// data sources behind "what happened on" a calendar date.
//
// # Date Keys
//
// Every source is queried with a [DateKey]: a strict YYYY-MM-DD string that
// names a real calendar date. Validation happens once, before any network
// call, via [IsValidCalendarDate]. Each adapter derives its own query format
// from the key:
//
//	News (NY Times Article Search):  compact "YYYYMMDD" first-published filter
//	Seismic (USGS FDSN event query):  "YYYY-MM-DDT00:00:00.000Z" .. "YYYY-MM-DDT23:59:59.999Z"
//	Near-Earth objects (NASA NeoWs):  the key verbatim as start_date and end_date
//	Grid intensity (GB Carbon Intensity): the key verbatim as a path segment
//
// # Records
//
// Records are normalized at fetch time and never persisted:
//
//   - [NewsArticle]: at most five, in source order.
//   - [SeismicEvent]: magnitude 4.0 and above, in source order.
//   - [CloseApproachObject]: distance and velocity arrive as numeric strings
//     and are parsed to float64. Values are never rounded in the record.
//   - [IntensityInterval]: half-hour windows ordered by the HH:mm portion of
//     the interval start. ActualGCO2PerKWh and GenerationMix are nil when the
//     source omits them.
//
// # Failure Taxonomy
//
// Three failure shapes exist, and only two of them reach callers:
//
//	ErrInvalidDate  the input is not a real YYYY-MM-DD date; no request is made
//	*RemoteError    non-2xx status, or the endpoint could not be reached
//	*ShapeAnomaly   the body decoded but did not match the expected structure
//
// A ShapeAnomaly is logged and absorbed by the adapter, which then returns an
// empty result. Presentation renders it exactly like a genuinely empty day.
package domain
