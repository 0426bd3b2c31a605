package keycode

import "strconv"

// Keyboard page usages, USB HID Usage Tables section 10.
var (
	A = Keyboard(0x04)
	B = Keyboard(0x05)
	C = Keyboard(0x06)
	D = Keyboard(0x07)
	E = Keyboard(0x08)
	F = Keyboard(0x09)
	G = Keyboard(0x0a)
	H = Keyboard(0x0b)
	I = Keyboard(0x0c)
	J = Keyboard(0x0d)
	K = Keyboard(0x0e)
	L = Keyboard(0x0f)
	M = Keyboard(0x10)
	N = Keyboard(0x11)
	O = Keyboard(0x12)
	P = Keyboard(0x13)
	Q = Keyboard(0x14)
	R = Keyboard(0x15)
	S = Keyboard(0x16)
	T = Keyboard(0x17)
	U = Keyboard(0x18)
	V = Keyboard(0x19)
	W = Keyboard(0x1a)
	X = Keyboard(0x1b)
	Y = Keyboard(0x1c)
	Z = Keyboard(0x1d)

	N1 = Keyboard(0x1e)
	N2 = Keyboard(0x1f)
	N3 = Keyboard(0x20)
	N4 = Keyboard(0x21)
	N5 = Keyboard(0x22)
	N6 = Keyboard(0x23)
	N7 = Keyboard(0x24)
	N8 = Keyboard(0x25)
	N9 = Keyboard(0x26)
	N0 = Keyboard(0x27)

	Enter     = Keyboard(0x28)
	Escape    = Keyboard(0x29)
	Backspace = Keyboard(0x2a)
	Tab       = Keyboard(0x2b)
	Space     = Keyboard(0x2c)
	Minus     = Keyboard(0x2d)
	Equal     = Keyboard(0x2e)
	LBracket  = Keyboard(0x2f)
	RBracket  = Keyboard(0x30)
	Backslash = Keyboard(0x31)
	Semicolon = Keyboard(0x33)
	Quote     = Keyboard(0x34)
	Grave     = Keyboard(0x35)
	Comma     = Keyboard(0x36)
	Dot       = Keyboard(0x37)
	Slash     = Keyboard(0x38)
	CapsLock  = Keyboard(0x39)

	F1  = Keyboard(0x3a)
	F2  = Keyboard(0x3b)
	F3  = Keyboard(0x3c)
	F4  = Keyboard(0x3d)
	F5  = Keyboard(0x3e)
	F6  = Keyboard(0x3f)
	F7  = Keyboard(0x40)
	F8  = Keyboard(0x41)
	F9  = Keyboard(0x42)
	F10 = Keyboard(0x43)
	F11 = Keyboard(0x44)
	F12 = Keyboard(0x45)

	PrintScreen = Keyboard(0x46)
	ScrollLock  = Keyboard(0x47)
	Pause       = Keyboard(0x48)
	Insert      = Keyboard(0x49)
	Home        = Keyboard(0x4a)
	PageUp      = Keyboard(0x4b)
	Delete      = Keyboard(0x4c)
	End         = Keyboard(0x4d)
	PageDown    = Keyboard(0x4e)
	Right       = Keyboard(0x4f)
	Left        = Keyboard(0x50)
	Down        = Keyboard(0x51)
	Up          = Keyboard(0x52)

	LeftCtrl   = Keyboard(0xe0)
	LeftShift  = Keyboard(0xe1)
	LeftAlt    = Keyboard(0xe2)
	LeftGUI    = Keyboard(0xe3)
	RightCtrl  = Keyboard(0xe4)
	RightShift = Keyboard(0xe5)
	RightAlt   = Keyboard(0xe6)
	RightGUI   = Keyboard(0xe7)
)

// Consumer page usages, USB HID Usage Tables section 15.
var (
	Mute       = Consumer(0xe2)
	VolumeUp   = Consumer(0xe9)
	VolumeDown = Consumer(0xea)
	PlayPause  = Consumer(0xcd)
	NextTrack  = Consumer(0xb5)
	PrevTrack  = Consumer(0xb6)
	Stop       = Consumer(0xb7)
)

// names maps every accepted expression name to its combo. The first name
// listed for a key in canonical is the one Key.String reports.
var names = map[string]Combo{}

var keyNames = map[Key]string{}

var canonical = []struct {
	key     Key
	aliases []string
}{
	{Enter, []string{"ENTER", "ENT"}},
	{Escape, []string{"ESCAPE", "ESC"}},
	{Backspace, []string{"BSPACE", "BSPC"}},
	{Tab, []string{"TAB"}},
	{Space, []string{"SPACE", "SPC"}},
	{Minus, []string{"MINUS", "MINS"}},
	{Equal, []string{"EQUAL", "EQL"}},
	{LBracket, []string{"LBRACKET", "LBRC"}},
	{RBracket, []string{"RBRACKET", "RBRC"}},
	{Backslash, []string{"BSLASH", "BSLS"}},
	{Semicolon, []string{"SCOLON", "SCLN"}},
	{Quote, []string{"QUOTE", "QUOT"}},
	{Grave, []string{"GRAVE", "GRV"}},
	{Comma, []string{"COMMA", "COMM"}},
	{Dot, []string{"DOT"}},
	{Slash, []string{"SLASH", "SLSH"}},
	{CapsLock, []string{"CAPSLOCK", "CAPS"}},
	{PrintScreen, []string{"PSCREEN", "PSCR"}},
	{ScrollLock, []string{"SCROLLLOCK", "SLCK"}},
	{Pause, []string{"PAUSE"}},
	{Insert, []string{"INSERT", "INS"}},
	{Home, []string{"HOME"}},
	{PageUp, []string{"PGUP"}},
	{Delete, []string{"DELETE", "DEL"}},
	{End, []string{"END"}},
	{PageDown, []string{"PGDOWN", "PGDN"}},
	{Right, []string{"RIGHT", "RGHT"}},
	{Left, []string{"LEFT"}},
	{Down, []string{"DOWN"}},
	{Up, []string{"UP"}},
	{LeftCtrl, []string{"LCTRL", "LCTL"}},
	{LeftShift, []string{"LSHIFT", "LSFT"}},
	{LeftAlt, []string{"LALT"}},
	{LeftGUI, []string{"LGUI", "LCMD", "LWIN"}},
	{RightCtrl, []string{"RCTRL", "RCTL"}},
	{RightShift, []string{"RSHIFT", "RSFT"}},
	{RightAlt, []string{"RALT"}},
	{RightGUI, []string{"RGUI", "RCMD", "RWIN"}},
	{Mute, []string{"MUTE", "AUDIO_MUTE"}},
	{VolumeUp, []string{"VOLU", "AUDIO_VOL_UP"}},
	{VolumeDown, []string{"VOLD", "AUDIO_VOL_DOWN"}},
	{PlayPause, []string{"MPLY", "MEDIA_PLAY_PAUSE"}},
	{NextTrack, []string{"MNXT", "MEDIA_NEXT_TRACK"}},
	{PrevTrack, []string{"MPRV", "MEDIA_PREV_TRACK"}},
	{Stop, []string{"MSTP", "MEDIA_STOP"}},
}

// shifted are the US-layout names that imply LShift.
var shifted = []struct {
	name string
	key  Key
}{
	{"EXLM", N1}, {"AT", N2}, {"HASH", N3}, {"DLR", N4}, {"PERC", N5},
	{"CIRC", N6}, {"AMPR", N7}, {"ASTR", N8}, {"LPRN", N9}, {"RPRN", N0},
	{"UNDS", Minus}, {"PLUS", Equal}, {"LCBR", LBracket}, {"RCBR", RBracket},
	{"PIPE", Backslash}, {"COLON", Semicolon}, {"COLN", Semicolon},
	{"DQUO", Quote}, {"DQT", Quote}, {"TILD", Grave}, {"LABK", Comma},
	{"RABK", Dot}, {"QUES", Slash},
}

func init() {
	for i := 0; i < 26; i++ {
		k := Keyboard(uint16(0x04 + i))
		name := string(rune('A' + i))
		names[name] = Of(k)
		keyNames[k] = name
	}
	digits := []Key{N0, N1, N2, N3, N4, N5, N6, N7, N8, N9}
	for d, k := range digits {
		n := string(rune('0' + d))
		names["N"+n] = Of(k)
		names["_"+n] = Of(k)
		names[n] = Of(k)
		keyNames[k] = "N" + n
	}
	for i := 0; i < 12; i++ {
		k := Keyboard(uint16(0x3a + i))
		name := "F" + strconv.Itoa(i+1)
		names[name] = Of(k)
		keyNames[k] = name
	}
	for i := 0; i < 12; i++ {
		k := Keyboard(uint16(0x68 + i))
		name := "F" + strconv.Itoa(i+13)
		names[name] = Of(k)
		keyNames[k] = name
	}
	for _, c := range canonical {
		for _, a := range c.aliases {
			names[a] = Of(c.key)
		}
		keyNames[c.key] = c.aliases[0]
	}
	for _, s := range shifted {
		names[s.name] = Combo{Key: s.key, Mods: LShift}
	}
}
