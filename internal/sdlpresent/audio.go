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

package sdlpresent

// void Silence(void *data, void *stream, int len);
import "C"

import (
	"fmt"
	"reflect"
	"unsafe"

	"github.com/veandco/go-sdl2/sdl"
)

// AudioDevice is a muted SDL audio device, kept for parity with the
// teacher's audio wiring. Chip16's closed opcode table defines no sound
// instruction (the SND family decodes as an ignorable no-op), so the
// callback here only ever emits silence.
type AudioDevice struct{}

// NewAudioDevice returns an unopened audio device; Window.Init opens it
// alongside the video subsystem.
func NewAudioDevice() *AudioDevice {
	return &AudioDevice{}
}

func (a *AudioDevice) open() error {
	spec := &sdl.AudioSpec{
		Freq:     3000,
		Format:   sdl.AUDIO_F32,
		Channels: 1,
		Samples:  32,
		Callback: sdl.AudioCallback(C.Silence),
	}

	if err := sdl.OpenAudio(spec, nil); err != nil {
		return fmt.Errorf("sdlpresent: open audio: %w", err)
	}
	sdl.PauseAudio(false)
	return nil
}

func (a *AudioDevice) close() {
	sdl.CloseAudio()
}

//export Silence
func Silence(_ unsafe.Pointer, stream unsafe.Pointer, length C.int) {
	n := int(length)

	buf := *(*[]C.float)(unsafe.Pointer(&reflect.SliceHeader{
		Data: uintptr(stream),
		Len:  n,
		Cap:  n,
	}))

	for i := range buf {
		buf[i] = 0
	}
}
