package memory

// MockCartridge is a flat cartridge used by decoder tests: PRG covers
// $6000-$FFFF and CHR covers $0000-$1FFF.
type MockCartridge struct {
	PRG       [0xA000]uint8
	CHR       [0x2000]uint8
	Mirror    MirrorMode
	PRGWrites []uint16
}

func (c *MockCartridge) CPURange() (uint16, uint16) { return 0x6000, 0xFFFF }
func (c *MockCartridge) PPURange() (uint16, uint16) { return 0x0000, 0x1FFF }
func (c *MockCartridge) CPURead(address uint16) uint8 {
	return c.PRG[address-0x6000]
}
func (c *MockCartridge) CPUWrite(address uint16, value uint8) {
	c.PRGWrites = append(c.PRGWrites, address)
	c.PRG[address-0x6000] = value
}
func (c *MockCartridge) PPURead(address uint16) uint8         { return c.CHR[address] }
func (c *MockCartridge) PPUWrite(address uint16, value uint8) { c.CHR[address] = value }
func (c *MockCartridge) Mirroring() MirrorMode                { return c.Mirror }

// MockPPU records register traffic.
type MockPPU struct {
	registers  [8]uint8
	readCalls  []uint16
	writeCalls []uint16
}

func (p *MockPPU) ReadRegister(address uint16) uint8 {
	p.readCalls = append(p.readCalls, address)
	return p.registers[address&7]
}

func (p *MockPPU) WriteRegister(address uint16, value uint8) {
	p.writeCalls = append(p.writeCalls, address)
	p.registers[address&7] = value
}

// MockInput returns a fixed bit and records strobes.
type MockInput struct {
	bit     uint8
	strobes []uint8
}

func (i *MockInput) Read(address uint16) uint8 { return i.bit }
func (i *MockInput) Write(address uint16, value uint8) {
	i.strobes = append(i.strobes, value)
}
