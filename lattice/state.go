package lattice

// State is a search state on the lattice: a grid cell plus a heading bin. It is a value
// type whose equality defines graph-node identity.
type State struct {
	X   int
	Y   int
	Bin int
}

// Index returns a dense arena index for the state on a grid of the given width with the
// given heading bin count. States on the same grid with the same bin count never share
// an index.
func (s State) Index(width, numHeadings int) int {
	return (s.Y*width+s.X)*numHeadings + s.Bin
}

// InBounds reports whether the state's cell lies on a grid of the given dimensions.
func (s State) InBounds(sizeX, sizeY int) bool {
	return s.X >= 0 && s.Y >= 0 && s.X < sizeX && s.Y < sizeY
}
