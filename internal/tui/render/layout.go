package render

// Layout is the screen geometry of the last rendered palette.
type Layout struct {
	// X, Y, W and H are the outer rectangle of the box, border included.
	X, Y, W, H int
	// RowsY is the line of the first result row; Rows is how many there are.
	RowsY int
	Rows  int
}

// InsideBox reports whether (x, y) is within the box.
func (l Layout) InsideBox(x, y int) bool {
	return x >= l.X && x < l.X+l.W && y >= l.Y && y < l.Y+l.H
}

// RowAt returns the result row under (x, y).
func (l Layout) RowAt(x, y int) (int, bool) {
	if l.Rows == 0 || !l.InsideBox(x, y) {
		return 0, false
	}
	// The border columns are not part of a row.
	if x == l.X || x == l.X+l.W-1 {
		return 0, false
	}
	row := y - l.RowsY
	if row < 0 || row >= l.Rows {
		return 0, false
	}
	return row, true
}
