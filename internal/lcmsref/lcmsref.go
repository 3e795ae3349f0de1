//go:build lcms2cgo

// Package lcmsref runs transforms with Little CMS 2 so that results can be
// compared against it. It is only built with the lcms2cgo tag.
package lcmsref

/*
#cgo LDFLAGS: -llcms2
#include <stdint.h>
#include <lcms2.h>

extern void go_lcms2_error_handler(uintptr_t, int, char *);

static void lcms2_error_handler(cmsContext ctx, cmsUInt32Number code, const char *text) {
    go_lcms2_error_handler((uintptr_t)cmsGetContextUserData(ctx), code, (char*)text);
}

static cmsContext new_context(uintptr_t handle) {
    cmsContext ctx = cmsCreateContext(NULL, (void*)handle);
    if (ctx) cmsSetLogErrorHandlerTHR(ctx, lcms2_error_handler);
    return ctx;
}

static const cmsUInt32Number type_rgb_8 = TYPE_RGB_8;
static const cmsUInt32Number type_rgba_8 = TYPE_RGBA_8;
static const cmsUInt32Number type_gray_8 = TYPE_GRAY_8;
static const cmsUInt32Number type_cmyk_8 = TYPE_CMYK_8;
static const cmsUInt32Number type_rgb_16 = TYPE_RGB_16;
*/
import "C"

import (
	"fmt"
	"runtime"
	"runtime/cgo"
	"strings"
	"unsafe"
)

// Format is a Little CMS pixel format
type Format struct {
	t        C.cmsUInt32Number
	channels int
	bytes    int
}

var (
	RGB8  = Format{C.type_rgb_8, 3, 1}
	RGBA8 = Format{C.type_rgba_8, 4, 1}
	Gray8 = Format{C.type_gray_8, 1, 1}
	CMYK8 = Format{C.type_cmyk_8, 4, 1}
	RGB16 = Format{C.type_rgb_16, 3, 2}
)

type Profile struct {
	handle         cgo.Handle
	ctx            C.cmsContext
	p              C.cmsHPROFILE
	error_messages []string
}

//export go_lcms2_error_handler
func go_lcms2_error_handler(handle C.uintptr_t, code C.int, text *C.char) {
	p := cgo.Handle(handle).Value().(*Profile)
	p.error_messages = append(p.error_messages, fmt.Sprintf("LCMS2 error: %d: %s", int(code), C.GoString(text)))
}

func (p *Profile) with_error_handling(f func() string) error {
	p.error_messages = nil
	if msg := f(); msg != "" {
		if len(p.error_messages) > 0 {
			return fmt.Errorf("%s: %s", msg, strings.Join(p.error_messages, "\n"))
		}
		return fmt.Errorf("%s", msg)
	}
	return nil
}

func (p *Profile) Close() {
	if p.p != nil {
		C.cmsCloseProfile(p.p)
		p.p = nil
	}
	if p.ctx != nil {
		C.cmsDeleteContext(p.ctx)
		p.ctx = nil
	}
	if p.handle != 0 {
		p.handle.Delete()
		p.handle = 0
	}
}

// Open loads ICC profile data. The profile must be closed when no longer
// needed.
func Open(data []byte) (ans *Profile, err error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty data not allowed")
	}
	ans = &Profile{}
	ans.handle = cgo.NewHandle(ans)
	ans.ctx = C.new_context(C.uintptr_t(ans.handle))
	err = ans.with_error_handling(func() string {
		ans.p = C.cmsOpenProfileFromMemTHR(ans.ctx, unsafe.Pointer(&data[0]), C.cmsUInt32Number(len(data)))
		if ans.p == nil {
			return "failed to load ICC profile from provided data"
		}
		return ""
	})
	runtime.KeepAlive(data)
	if err != nil {
		ans.Close()
		return nil, err
	}
	return ans, nil
}

// Transform converts n pixels from in to out, both in the native byte order
// of the formats
func (p *Profile) Transform(in []byte, in_format Format, dst *Profile, out []byte, out_format Format, intent int, n int) error {
	if len(in) < n*in_format.channels*in_format.bytes || len(out) < n*out_format.channels*out_format.bytes {
		return fmt.Errorf("buffers too small for %d pixels", n)
	}
	if n == 0 {
		return nil
	}
	var t C.cmsHTRANSFORM
	err := p.with_error_handling(func() string {
		t = C.cmsCreateTransformTHR(p.ctx, p.p, in_format.t, dst.p, out_format.t, C.cmsUInt32Number(intent), C.cmsFLAGS_NOCACHE)
		if t == nil {
			return "failed to create transform"
		}
		return ""
	})
	if err != nil {
		return err
	}
	defer C.cmsDeleteTransform(t)
	C.cmsDoTransform(t, unsafe.Pointer(&in[0]), unsafe.Pointer(&out[0]), C.cmsUInt32Number(n))
	runtime.KeepAlive(in)
	runtime.KeepAlive(out)
	return nil
}
