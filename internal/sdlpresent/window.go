/* Copyright (c) 2017 Jeffrey Massung
 *
 * This software is provided 'as-is', without any express or implied
 * warranty.  In no event will the authors be held liable for any damages
 * arising from the use of this software.
 *
 * Permission is granted to anyone to use this software for any purpose,
 * including commercial applications, and to alter it and redistribute it
 * freely, subject to the following restrictions:
 *
 * 1. The origin of this software must not be misrepresented; you must not
 *    claim that you wrote the original software. If you use this software
 *    in a product, an acknowledgment in the product documentation would be
 *    appreciated but is not required.
 *
 * 2. Altered source versions must be plainly marked as such, and must not be
 *    misrepresented as being the original software.
 *
 * 3. This notice may not be removed or altered from any source distribution.
 */

// Package sdlpresent adapts an SDL2 window and audio device to the
// chip16.Presenter contract.
package sdlpresent

import (
	"fmt"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/massung/chip16emu/chip16"
)

// Scale is the integer window scale factor applied to the native 320x240
// framebuffer.
const Scale = 2

// KeyMap maps modern keyboard scancodes to the 16 Chip16 input lines, the
// same table shape the CHIP-8 front-end used for its 16-key pad.
var KeyMap = map[sdl.Scancode]uint8{
	sdl.SCANCODE_UP:     0x0,
	sdl.SCANCODE_DOWN:   0x1,
	sdl.SCANCODE_LEFT:   0x2,
	sdl.SCANCODE_RIGHT:  0x3,
	sdl.SCANCODE_Z:      0x4, // select
	sdl.SCANCODE_X:      0x5, // start
	sdl.SCANCODE_A:      0x6, // A
	sdl.SCANCODE_S:      0x7, // B
	sdl.SCANCODE_KP_8:   0x8,
	sdl.SCANCODE_KP_2:   0x9,
	sdl.SCANCODE_KP_4:   0xA,
	sdl.SCANCODE_KP_6:   0xB,
	sdl.SCANCODE_KP_7:   0xC,
	sdl.SCANCODE_KP_9:   0xD,
	sdl.SCANCODE_KP_1:   0xE,
	sdl.SCANCODE_KP_3:   0xF,
}

// Window owns the SDL window, renderer, and render-target texture the
// framebuffer is blitted through, mirroring the CHIP-8 front-end's
// texture-as-render-target approach scaled up to Chip16's 320x240 screen.
// It implements chip16.Presenter.
type Window struct {
	title string
	audio *AudioDevice

	win      *sdl.Window
	renderer *sdl.Renderer
	screen   *sdl.Texture
}

// New returns a Window that has not yet opened SDL resources; call Init to
// do that, matching chip16.Presenter's lifecycle.
func New(title string, audio *AudioDevice) *Window {
	return &Window{title: title, audio: audio}
}

// Init implements chip16.Presenter: it brings up SDL video and audio, the
// window, renderer, and render-target texture, or returns an error
// describing which SDL call failed.
func (w *Window) Init() error {
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_AUDIO); err != nil {
		return fmt.Errorf("sdlpresent: sdl.Init: %w", err)
	}

	win, renderer, err := sdl.CreateWindowAndRenderer(
		chip16.ScreenWidth*Scale, chip16.ScreenHeight*Scale, sdl.WINDOW_OPENGL)
	if err != nil {
		return fmt.Errorf("sdlpresent: create window: %w", err)
	}
	win.SetTitle(w.title)

	if err := renderer.SetLogicalSize(chip16.ScreenWidth, chip16.ScreenHeight); err != nil {
		return fmt.Errorf("sdlpresent: set logical size: %w", err)
	}

	screen, err := renderer.CreateTexture(
		uint32(sdl.PIXELFORMAT_RGBA8888), sdl.TEXTUREACCESS_TARGET,
		chip16.ScreenWidth, chip16.ScreenHeight)
	if err != nil {
		return fmt.Errorf("sdlpresent: create screen texture: %w", err)
	}

	w.win, w.renderer, w.screen = win, renderer, screen

	if w.audio != nil {
		if err := w.audio.open(); err != nil {
			return err
		}
	}
	return nil
}

// Present implements chip16.Presenter: it redraws the render-target texture
// from the indexed framebuffer, palette-expanding each pixel, then copies
// it to the window and flips.
func (w *Window) Present(fb *[chip16.ScreenHeight][chip16.ScreenWidth]uint8, bg uint8) error {
	if err := w.renderer.SetRenderTarget(w.screen); err != nil {
		return fmt.Errorf("sdlpresent: set render target: %w", err)
	}

	br, bgc, bb, _ := chip16.PaletteRGBA(bg)
	w.renderer.SetDrawColor(br, bgc, bb, 255)
	w.renderer.Clear()

	var lastIdx uint8 = 255
	for y := 0; y < chip16.ScreenHeight; y++ {
		for x := 0; x < chip16.ScreenWidth; x++ {
			idx := fb[y][x]
			if idx == 0 {
				continue
			}
			if idx != lastIdx {
				r, g, b, a := chip16.PaletteRGBA(idx)
				w.renderer.SetDrawColor(r, g, b, a)
				lastIdx = idx
			}
			w.renderer.DrawPoint(int32(x), int32(y))
		}
	}

	if err := w.renderer.SetRenderTarget(nil); err != nil {
		return fmt.Errorf("sdlpresent: restore render target: %w", err)
	}

	w.renderer.Copy(w.screen, nil, nil)
	w.renderer.Present()
	return nil
}

// PollEvents implements chip16.Presenter, draining the SDL event queue
// once per frame and translating key transitions through KeyMap.
func (w *Window) PollEvents() (quit bool, keys chip16.KeyEvents) {
	for e := sdl.PollEvent(); e != nil; e = sdl.PollEvent() {
		switch ev := e.(type) {
		case *sdl.QuitEvent:
			quit = true
		case *sdl.KeyboardEvent:
			key, ok := KeyMap[ev.Keysym.Scancode]
			if !ok {
				continue
			}
			if ev.Type == sdl.KEYUP {
				keys.Released = append(keys.Released, key)
			} else if ev.Repeat == 0 {
				keys.Pressed = append(keys.Pressed, key)
			}
		}
	}
	return quit, keys
}

// Close tears down the audio device, texture, renderer, and window in
// reverse order of creation.
func (w *Window) Close() error {
	if w.audio != nil {
		w.audio.close()
	}
	if w.screen != nil {
		w.screen.Destroy()
	}
	if w.renderer != nil {
		w.renderer.Destroy()
	}
	if w.win != nil {
		return w.win.Destroy()
	}
	return nil
}
