// File: internal/driver/keys.go
package driver

import (
	"context"
	"fmt"
	"unicode"

	"github.com/chromedp/cdproto/input"
)

// keySpec carries the CDP identity of a non-printable key.
type keySpec struct {
	key  string
	code string
	vk   int64
	text string
}

var specialKeys = map[string]keySpec{
	"Enter":     {key: "Enter", code: "Enter", vk: 0x0D, text: "\r"},
	"Tab":       {key: "Tab", code: "Tab", vk: 0x09},
	"ArrowDown": {key: "ArrowDown", code: "ArrowDown", vk: 0x28},
}

// Basic mapping for US QWERTY layout Virtual Key codes, required for raw
// key events.
var keyToVK = map[rune]int64{
	'a': 0x41, 'b': 0x42, 'c': 0x43, 'd': 0x44, 'e': 0x45, 'f': 0x46,
	'g': 0x47, 'h': 0x48, 'i': 0x49, 'j': 0x4A, 'k': 0x4B, 'l': 0x4C,
	'm': 0x4D, 'n': 0x4E, 'o': 0x4F, 'p': 0x50, 'q': 0x51, 'r': 0x52,
	's': 0x53, 't': 0x54, 'u': 0x55, 'v': 0x56, 'w': 0x57, 'x': 0x58,
	'y': 0x59, 'z': 0x5A,
	'0': 0x30, '1': 0x31, '2': 0x32, '3': 0x33, '4': 0x34,
	'5': 0x35, '6': 0x36, '7': 0x37, '8': 0x38, '9': 0x39,
	' ': 0x20, '\b': 0x08, '\r': 0x0D, '\n': 0x0D,
	';': 0xBA, '=': 0xBB, ',': 0xBC, '-': 0xBD, '.': 0xBE, '/': 0xBF,
	'`': 0xC0, '[': 0xDB, '\\': 0xDC, ']': 0xDD, '\'': 0xDE,
}

// needsShift reports whether the rune requires Shift on a US QWERTY layout.
func needsShift(key rune) bool {
	if unicode.IsLetter(key) && unicode.IsUpper(key) {
		return true
	}
	switch key {
	case '!', '@', '#', '$', '%', '^', '&', '*', '(', ')', '_', '+',
		'{', '}', '|', ':', '"', '<', '>', '?', '~':
		return true
	default:
		return false
	}
}

// dispatchRune sends KeyDown then KeyUp for a printable character.
func dispatchRune(ctx context.Context, key rune, modifiers input.Modifier) error {
	if needsShift(key) {
		modifiers |= input.ModifierShift
	}
	text := string(key)
	// Unmapped runes rely on the browser interpreting the Key field.
	vk := keyToVK[unicode.ToLower(key)]

	downType := input.KeyRawDown
	if unicode.IsPrint(key) {
		downType = input.KeyDown
	}

	down := input.DispatchKeyEvent(downType).
		WithModifiers(modifiers).
		WithWindowsVirtualKeyCode(vk).
		WithKey(text)
	if downType == input.KeyDown {
		down = down.WithText(text)
	}
	if err := down.Do(ctx); err != nil {
		return fmt.Errorf("keydown failed for %q: %w", text, err)
	}

	up := input.DispatchKeyEvent(input.KeyUp).
		WithModifiers(modifiers).
		WithWindowsVirtualKeyCode(vk).
		WithKey(text)
	if err := up.Do(ctx); err != nil {
		return fmt.Errorf("keyup failed for %q: %w", text, err)
	}
	return nil
}

// dispatchSpecial sends KeyDown then KeyUp for a named non-printable key.
func dispatchSpecial(ctx context.Context, spec keySpec, modifiers input.Modifier) error {
	down := input.DispatchKeyEvent(input.KeyRawDown).
		WithModifiers(modifiers).
		WithWindowsVirtualKeyCode(spec.vk).
		WithKey(spec.key).
		WithCode(spec.code)
	// Enter still produces a text payload so editable controls commit.
	if spec.text != "" {
		down = input.DispatchKeyEvent(input.KeyDown).
			WithModifiers(modifiers).
			WithWindowsVirtualKeyCode(spec.vk).
			WithKey(spec.key).
			WithCode(spec.code).
			WithText(spec.text)
	}
	if err := down.Do(ctx); err != nil {
		return fmt.Errorf("keydown failed for %q: %w", spec.key, err)
	}

	up := input.DispatchKeyEvent(input.KeyUp).
		WithModifiers(modifiers).
		WithWindowsVirtualKeyCode(spec.vk).
		WithKey(spec.key).
		WithCode(spec.code)
	if err := up.Do(ctx); err != nil {
		return fmt.Errorf("keyup failed for %q: %w", spec.key, err)
	}
	return nil
}
