package nes

/*
bit:	7	6	5	4	3	2	1	0
button:	Right	Left	Down	Up	Start	Select	B	A

Both pads are strobed by a write to $4016; $4016 reads pad 1 and $4017
pad 2, one button per read, A first.
*/

const (
	ButtonA = iota
	ButtonB
	ButtonSelect
	ButtonStart
	ButtonUp
	ButtonDown
	ButtonLeft
	ButtonRight
)

// Buttons packs pressed states into the bitmask a controller callback returns.
func Buttons(pressed [8]bool) byte {
	var mask byte
	for i, on := range pressed {
		if on {
			mask |= 1 << i
		}
	}
	return mask
}

type Controller struct {
	poll    func() byte
	buttons byte
	index   byte
	strobe  bool
}

type ControllerState struct {
	Buttons byte
	Index   byte
	Strobe  bool
}

// NewController reads the host's button mask from poll on every strobe.
// A nil poll reads as no buttons held.
func NewController(poll func() byte) *Controller {
	return &Controller{poll: poll}
}

func (c *Controller) latch() {
	c.index = 0
	if c.poll != nil {
		c.buttons = c.poll()
	} else {
		c.buttons = 0
	}
}

func (c *Controller) Read() byte {
	if c.strobe {
		c.latch()
	}
	value := c.peek()
	if c.index < 8 {
		c.index++
	}
	return value
}

func (c *Controller) peek() byte {
	if c.index >= 8 {
		return 1
	}
	return (c.buttons >> c.index) & 1
}

func (c *Controller) Write(value byte) {
	c.strobe = value&1 == 1
	if c.strobe {
		c.latch()
	}
}

func (c *Controller) Snapshot() ControllerState {
	return ControllerState{Buttons: c.buttons, Index: c.index, Strobe: c.strobe}
}

func (c *Controller) Restore(s ControllerState) {
	c.buttons = s.Buttons
	c.index = s.Index
	c.strobe = s.Strobe
}
