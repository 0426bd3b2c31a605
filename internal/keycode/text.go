package keycode

// runeTable maps printable ASCII to US-layout combos.
var runeTable = map[rune]Combo{
	'\n': Of(Enter),
	'\t': Of(Tab),
	' ':  Of(Space),
	'-':  Of(Minus),
	'_':  {Minus, LShift},
	'=':  Of(Equal),
	'+':  {Equal, LShift},
	'[':  Of(LBracket),
	'{':  {LBracket, LShift},
	']':  Of(RBracket),
	'}':  {RBracket, LShift},
	'\\': Of(Backslash),
	'|':  {Backslash, LShift},
	';':  Of(Semicolon),
	':':  {Semicolon, LShift},
	'\'': Of(Quote),
	'"':  {Quote, LShift},
	'`':  Of(Grave),
	'~':  {Grave, LShift},
	',':  Of(Comma),
	'<':  {Comma, LShift},
	'.':  Of(Dot),
	'>':  {Dot, LShift},
	'/':  Of(Slash),
	'?':  {Slash, LShift},
	'!':  {N1, LShift},
	'@':  {N2, LShift},
	'#':  {N3, LShift},
	'$':  {N4, LShift},
	'%':  {N5, LShift},
	'^':  {N6, LShift},
	'&':  {N7, LShift},
	'*':  {N8, LShift},
	'(':  {N9, LShift},
	')':  {N0, LShift},
}

// ForRune returns the combo that types r on a US layout.
func ForRune(r rune) (Combo, bool) {
	switch {
	case r >= 'a' && r <= 'z':
		return Of(Keyboard(uint16(0x04 + r - 'a'))), true
	case r >= 'A' && r <= 'Z':
		return Combo{Key: Keyboard(uint16(0x04 + r - 'A')), Mods: LShift}, true
	case r == '0':
		return Of(N0), true
	case r >= '1' && r <= '9':
		return Of(Keyboard(uint16(0x1e + r - '1'))), true
	}
	c, ok := runeTable[r]
	return c, ok
}
