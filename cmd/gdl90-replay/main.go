// gdl90-replay 把抓包文件按块送入解码器，逐条打印解出的消息并输出统计。
//
//	gdl90-replay [-hex] [-chunk N] [-stats] [-unknown] [-v] capture.bin
package main

import (
	"bytes"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/taoyao-code/gdl90-server/internal/logging"
	"github.com/taoyao-code/gdl90-server/internal/protocol/gdl90"
)

func main() {
	hexInput := flag.Bool("hex", false, "input is hex text (whitespace ignored)")
	chunk := flag.Int("chunk", 0, "feed the decoder in pieces of N bytes (0 = whole input)")
	showStats := flag.Bool("stats", true, "print decoder statistics at the end")
	unknown := flag.Bool("unknown", false, "surface unregistered message types instead of dropping them")
	verbose := flag.Bool("v", false, "log decoder anomalies at debug level to stderr")
	flag.Parse()

	if err := run(flag.Args(), *hexInput, *chunk, *showStats, *unknown, *verbose, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "gdl90-replay: %v\n", err)
		os.Exit(1)
	}
}

var errUsage = errors.New("usage: gdl90-replay [flags] <capture file | ->")

func run(args []string, hexInput bool, chunk int, showStats, unknown, verbose bool, out io.Writer) error {
	if len(args) != 1 {
		return errUsage
	}
	data, err := readInput(args[0], hexInput)
	if err != nil {
		return err
	}

	logger := zap.NewNop()
	if verbose {
		logger, err = logging.InitStderr("debug")
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()
	}

	reg := gdl90.DefaultRegistry()
	if unknown {
		reg.SetFallback(gdl90.DecodeUnknown)
	}
	d := gdl90.NewDecoder(
		gdl90.WithRegistry(reg),
		gdl90.WithLogger(logger),
		gdl90.WithHandler(func(m gdl90.Message) { printMessage(out, m) }),
	)

	feed(d, data, chunk)
	if showStats {
		printStats(out, d.Stats())
	}
	return nil
}

func readInput(path string, hexInput bool) ([]byte, error) {
	var (
		raw []byte
		err error
	)
	if path == "-" {
		raw, err = io.ReadAll(os.Stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if !hexInput {
		return raw, nil
	}
	clean := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, string(raw))
	b, err := hex.DecodeString(clean)
	if err != nil {
		return nil, fmt.Errorf("decode hex: %w", err)
	}
	return b, nil
}

func feed(d *gdl90.Decoder, data []byte, chunk int) {
	if chunk <= 0 {
		d.Ingest(data)
		return
	}
	for len(data) > 0 {
		n := chunk
		if n > len(data) {
			n = len(data)
		}
		d.Ingest(data[:n])
		data = data[n:]
	}
}

func printMessage(w io.Writer, m gdl90.Message) {
	switch v := m.(type) {
	case gdl90.Heartbeat:
		fmt.Fprintf(w, "MSG00: s1=%02X, s2=%02X, ts=%02X\n", v.StatusByte1, v.StatusByte2, v.TimeStamp)
	case gdl90.TrafficReport:
		if v.HasPosition() {
			fmt.Fprintf(w, "MSG20: %0.7f %0.7f %d %d %d %d %s\n",
				v.Latitude, v.Longitude, v.HVelocity, v.VVelocity, v.Altitude, int(v.TrackHeading), v.CallSign)
		}
	case gdl90.OwnshipReport:
		fmt.Fprintf(w, "MSG10: %0.7f %0.7f %d %d %d %d %s\n",
			v.Latitude, v.Longitude, v.HVelocity, v.VVelocity, v.Altitude, int(v.TrackHeading), v.CallSign)
	case gdl90.OwnshipGeoAltitude:
		fmt.Fprintf(w, "MSG11: alt=%d vfom=%d warn=%t\n", v.AltitudeFt, v.VFOMMeters, v.VerticalWarning)
	case gdl90.Unknown:
		fmt.Fprintf(w, "MSG%02X: unknown len=%d\n", v.ID, len(v.Data))
	default:
		fmt.Fprintf(w, "MSG%02X: %s\n", m.TypeID(), m.Kind())
	}
}

func printStats(w io.Writer, s gdl90.Snapshot) {
	var b bytes.Buffer
	fmt.Fprintf(&b, "attempts=%d messages=%d malformed=%d resyncs=%d\n", s.Attempts, s.Messages, s.Malformed, s.Resyncs)
	ids := make([]int, 0, len(s.Types))
	for id := range s.Types {
		ids = append(ids, int(id))
	}
	sort.Ints(ids)
	for _, id := range ids {
		c := s.Types[uint8(id)]
		fmt.Fprintf(&b, "  type 0x%02X: success=%d failure=%d\n", id, c.Success, c.Failure)
	}
	_, _ = w.Write(b.Bytes())
}
