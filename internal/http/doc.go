// Package http exposes the reservation engine over JSON.
//
// Routes:
//   - GET /api/public/grid?date=YYYY-MM-DD[&to=YYYY-MM-DD]: day grid without
//     internal notes or series ids. date defaults to today in the facility zone.
//   - GET /api/office/grid: same grid with notes and series ids.
//   - POST /api/office/reservations: creates a reservation, or a weekly series
//     when the body carries "repeat".
//   - PATCH /api/office/reservations/{id}: updates one reservation, or every
//     confirmed member of its series with ?scope=series.
//   - POST /api/office/reservations/{id}/cancel: cancels after PIN verification;
//     body {"pin","scope"}.
//   - GET /healthz and GET /metrics.
//
// Office routes require the X-Device-Label and X-Device-Key headers of a
// registered, enabled device. The device and the caller address are recorded as
// the audit actor.
package http
