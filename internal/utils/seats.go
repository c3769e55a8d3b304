package utils // package utils provides small helpers shared across handlers and services

import (
    "fmt"
    "math/rand"
)

// Seat labels are drawn from a 10-row ("A".."J") grid of 50 seats per
// row.  The labels are cosmetic: each lock already reserved distinct
// inventory, so the only requirement is that labels never repeat
// within one booking.
const (
    seatRows    = 10
    seatsPerRow = 50
)

// GenerateSeatNumbers returns n distinct seat labels such as "C17" in
// random order.  When n exceeds the default grid the rows are
// lengthened so that n labels always exist.  The labels come from a
// single shuffle of the grid, so the call completes in one pass for
// any n.
func GenerateSeatNumbers(n int) []string {
    if n <= 0 {
        return []string{}
    }
    perRow := seatsPerRow
    if n > seatRows*perRow {
        perRow = (n + seatRows - 1) / seatRows
    }
    labels := make([]string, 0, seatRows*perRow)
    for row := 0; row < seatRows; row++ {
        for seat := 1; seat <= perRow; seat++ {
            labels = append(labels, fmt.Sprintf("%c%d", 'A'+row, seat))
        }
    }
    rand.Shuffle(len(labels), func(i, j int) {
        labels[i], labels[j] = labels[j], labels[i]
    })
    return labels[:n]
}
