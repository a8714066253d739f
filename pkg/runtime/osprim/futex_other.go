//go:build !linux

package osprim

type sysFutex struct{}

func (sysFutex) Sleep(addr *uint32, val uint32) { Emulated.Sleep(addr, val) }
func (sysFutex) Wakeup(addr *uint32, n uint32)  { Emulated.Wakeup(addr, n) }

func probeFutex() bool { return false }
