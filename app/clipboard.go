package app

import (
	"errors"
	"runtime"
	"sync"

	atotto "github.com/atotto/clipboard"
	"golang.design/x/clipboard"
)

var errNoClipboard = errors.New("clipboard unavailable")

// Clipboard uses the native clipboard when it initialises and falls back
// to the external-tool clipboard otherwise.
type Clipboard struct {
	once    sync.Once
	native  bool
	initErr error
}

func (c *Clipboard) init() {
	c.once.Do(func() {
		if runtime.GOOS == "js" {
			c.initErr = errNoClipboard
			return
		}
		c.initErr = clipboard.Init()
		c.native = c.initErr == nil
	})
}

// Native reports whether the native clipboard initialised.
func (c *Clipboard) Native() bool {
	c.init()
	return c.native
}

func (c *Clipboard) WriteText(s string) error {
	c.init()
	if c.native {
		clipboard.Write(clipboard.FmtText, []byte(s))
		return nil
	}
	if atotto.Unsupported {
		return errors.Join(errNoClipboard, c.initErr)
	}
	return atotto.WriteAll(s)
}

func (c *Clipboard) ReadText() (string, error) {
	c.init()
	if c.native {
		return string(clipboard.Read(clipboard.FmtText)), nil
	}
	if atotto.Unsupported {
		return "", errors.Join(errNoClipboard, c.initErr)
	}
	return atotto.ReadAll()
}
