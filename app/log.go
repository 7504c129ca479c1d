// SPDX-License-Identifier: Unlicense OR MIT

//go:build !windows

package app

import "io"

func logOutput(w io.Writer) io.Writer {
	return w
}
