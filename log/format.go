// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package log

import (
	"log/slog"
	"strconv"
	"strings"
	"unicode/utf8"
)

const termTimeFormat = "01-02|15:04:05.000"

func levelColor(l slog.Level) int {
	switch {
	case l >= LevelCrit:
		return 35
	case l >= LevelError:
		return 31
	case l >= LevelWarn:
		return 33
	case l >= LevelInfo:
		return 32
	case l >= LevelDebug:
		return 36
	default:
		return 34
	}
}

func (h *TerminalHandler) format(buf []byte, r slog.Record) []byte {
	lvl := LevelString(r.Level)
	if h.useColor {
		buf = append(buf, "\x1b["...)
		buf = strconv.AppendInt(buf, int64(levelColor(r.Level)), 10)
		buf = append(buf, 'm')
		buf = append(buf, lvl...)
		buf = append(buf, "\x1b[0m"...)
	} else {
		buf = append(buf, lvl...)
	}
	buf = append(buf, " ["...)
	buf = r.Time.AppendFormat(buf, termTimeFormat)
	buf = append(buf, "] "...)
	buf = append(buf, r.Message...)

	// pad the message so that attributes line up
	if n := 40 - utf8.RuneCountInString(r.Message); n > 0 && (len(h.attrs) > 0 || r.NumAttrs() > 0) {
		buf = append(buf, strings.Repeat(" ", n)...)
	}

	for _, a := range h.attrs {
		buf = appendAttr(buf, a)
	}
	r.Attrs(func(a slog.Attr) bool {
		buf = appendAttr(buf, a)
		return true
	})
	return append(buf, '\n')
}

func appendAttr(buf []byte, a slog.Attr) []byte {
	buf = append(buf, ' ')
	buf = append(buf, a.Key...)
	buf = append(buf, '=')
	v := replaceValue(a.Value.Resolve(), true)
	s := v.String()
	if needsQuoting(s) {
		return strconv.AppendQuote(buf, s)
	}
	return append(buf, s...)
}

func needsQuoting(s string) bool {
	if s == "" {
		return true
	}
	for _, r := range s {
		if r <= ' ' || r == '=' || r == '"' || r >= utf8.RuneSelf {
			return true
		}
	}
	return false
}
