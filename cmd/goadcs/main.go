// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.19
//

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	m "github.com/mkhts/goadcs"
)

func main() {

	// Parse command line arguments
	args, err := parseArgs()
	if err != nil {
		m.PrintE(err)
		flag.Usage()
		os.Exit(1)
	}

	// Run the main application
	if err := runApplication(args); err != nil {
		m.PrintE(err)
		os.Exit(1)
	}
}

// Main application processing
func runApplication(args cmdOpt) error {

	// Load configuration
	cfg, err := loadConfig(args)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if args.dumpCfg {
		return m.WriteConfig(os.Stdout, cfg)
	}

	sys, err := m.NewSystem(cfg)
	if err != nil {
		return fmt.Errorf("failed to create estimator: %w", err)
	}

	// Prepare output file
	out, err := prepareOutput(args)
	if err != nil {
		return fmt.Errorf("failed to prepare output: %w", err)
	}
	defer closeOutput(out)

	// Print header
	if !args.noHeader {
		printHeader(out, os.Args[0], args, cfg)
	}

	// Process cycles
	return processCycles(args, sys, out)
}

// Load the configuration file, or the defaults without one
func loadConfig(args cmdOpt) (*m.Config, error) {
	var cfg *m.Config
	if len(args.cfgFn) == 0 {
		cfg = m.NewConfig(args.numCabins)
	} else {
		f, err := os.Open(args.cfgFn)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		cfg, err = m.LoadConfig(f)
		if err != nil {
			return nil, err
		}
	}
	if args.parallel {
		cfg.Parallel = true
	}
	return cfg, nil
}

// Prepare output file
func prepareOutput(args cmdOpt) (io.WriteCloser, error) {

	// Use stdout if no output file is specified
	if len(args.outFn) == 0 {
		return &nopCloser{os.Stdout}, nil
	}

	// Create output file
	f, err := os.Create(args.outFn)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, nil
}

// Close output file
func closeOutput(out io.WriteCloser) {
	if out != nil {
		out.Close()
	}
}

// Simulate the sensors and run the estimator cycle by cycle
func processCycles(args cmdOpt, sys *m.System, out io.Writer) error {

	scs := make([]*m.Scenario, len(sys.Cfg.Cabins))
	for i := range scs {
		sc := m.NewScenario(&sys.Cfg.Cabins[i])
		sc.Q0 = m.QFromRotVec(m.Vec3{m.ToRad(1), m.ToRad(-0.5), m.ToRad(0.3)})
		sc.Rate = m.Vec3{m.ToRad(args.rate[0]), m.ToRad(args.rate[1]), m.ToRad(args.rate[2])}
		sc.GyroBias = m.Vec3{m.ToRad(args.bias[0]), m.ToRad(args.bias[1]), m.ToRad(args.bias[2])}
		sc.Delay = args.delay
		sc.Start = m.NewOBTime(args.ts)
		sc.Mode = args.mode
		sc.ModeFlip = uint32(args.modeFlip)
		sc.SunVisible = args.sunVisible
		scs[i] = sc
	}

	ctx := context.Background()
	for k := range args.numCycles {
		ins := make([]m.CycleInput, len(scs))
		for i, sc := range scs {
			ins[i] = sc.Input(k)

			// Mode word is stored in triplicate
			mode, repaired, ok := m.DecodeMode(sc.ModeWords())
			if !ok {
				return fmt.Errorf("cycle %d: invalid mode word", k)
			}
			m.PrintAIf(repaired && m.DBG_ >= 1, "cycle %d: mode word repaired (%s)\n", k, mode.String())
			ins[i].Mode = mode
		}

		outs, err := sys.Step(ctx, ins)
		if err != nil {
			return fmt.Errorf("cycle %d: %w", k, err)
		}
		for i := range outs {
			printCycle(out, &outs[i], scs[i].Truth(float64(k)*scs[i].Period))
		}
	}
	return nil
}

// nopCloser - WriteCloser that ignores close operations
type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

// Structure to hold command line argument information
type cmdOpt struct {
	cfgFn      string
	outFn      string
	numCabins  int
	numCycles  int
	rate       m.Vec3Var
	bias       m.Vec3Var
	delay      float64
	mode       m.WorkMode
	modeFlip   uint
	parallel   bool
	sunVisible bool
	noHeader   bool
	dumpCfg    bool
	ts         time.Time
}

// Parse command line arguments
func parseArgs() (a cmdOpt, err error) {
	flag.Usage = func() {
		m.PrintA(`
[Usage]
	%s [Options]

[Options]
`, filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.StringVar(&a.cfgFn, "c", "", "Configuration file (YAML). If not specified, default tables are used.")
	flag.StringVar(&a.outFn, "o", "", "Output file path. If not specified, output to stdout.")
	flag.IntVar(&a.numCabins, "k", 1, "Number of cabins when no configuration file is given")
	flag.IntVar(&a.numCycles, "n", 100, "Number of control cycles to run")
	flag.Var(&a.rate, "w", "Truth body rate [deg/s]. Comma-separated like -w 0.1,0,-0.05")
	flag.Var(&a.bias, "b", "Gyro bias [deg/s]. Comma-separated like -b 0.002,0,0")
	flag.Float64Var(&a.delay, "d", 0.05, "Star tracker delay from exposure to the control cycle [s]")
	a.mode = m.ModeHold
	flag.Var(&a.mode, "m", "Work mode. 0(DAMP), 1(HOLD), 2(MANEUVER), 3(TRACK)")
	flag.UintVar(&a.modeFlip, "mf", 0, "Bits to flip in one stored copy of the mode word (voting test)")
	flag.BoolVar(&a.parallel, "p", false, "Process cabins concurrently")
	flag.BoolVar(&a.sunVisible, "sun", false, "Sun visible to the sun sensor")
	flag.BoolVar(&a.noHeader, "nh", false, "Do not output header section.")
	flag.BoolVar(&a.dumpCfg, "dump", false, "Print the configuration as YAML and exit")
	var ts_ m.TimeStr
	flag.TextVar(&ts_, "ts", m.NewTimeStr(m.OBEpoch), "Start time of the simulation. Enclose in quotes like -ts \"2026/01/01 00:00:00\"")
	var dbg int
	flag.IntVar(&dbg, "x", 0, "Debug information display. Specify level value. 0(OFF), 1(display), 2(detailed display), 3(more detailed), 4(most detailed)")
	flag.Parse()
	if flag.NArg() != 0 {
		return a, fmt.Errorf("too many arguments")
	}
	if a.numCabins < 1 {
		return a, fmt.Errorf("number of cabins must be positive: %d", a.numCabins)
	}
	a.ts = time.Time(ts_)
	m.DBG_ = dbg
	return
}

// Print header
func printHeader(out io.Writer, cmd string, args cmdOpt, cfg *m.Config) {
	fmt.Fprintf(out, "%% program   : %s\n", filepath.Base(cmd))
	if len(args.cfgFn) > 0 {
		fmt.Fprintf(out, "%% config    : %s\n", args.cfgFn)
	}
	fmt.Fprintf(out, "%% cabins    : %d\n", len(cfg.Cabins))
	fmt.Fprintf(out, "%% mode      : %s\n", args.mode.String())
	fmt.Fprintf(out, "%% rate      : %s (deg/s)\n", args.rate.String())
	fmt.Fprintf(out, "%% bias      : %s (deg/s)\n", args.bias.String())
	fmt.Fprintf(out, "%%  time                    cabin  cycle          q0          q1          q2          q3   roll(deg)  pitch(deg)    yaw(deg)   bias_x(deg/s)   bias_y(deg/s)   bias_z(deg/s)  err(arcsec) grp flags\n")
}

// Output one cycle
func printCycle(out io.Writer, o *m.CycleOutput, truth m.Quat) {
	e := m.QError(truth, o.Q)
	flags := ""
	for _, f := range []struct {
		on bool
		c  byte
	}{{o.RateValid, 'R'}, {o.AttValid, 'A'}, {o.Singular, 'S'}, {o.InnoLimited, 'L'}, {o.SunValid, 'U'}} {
		if f.on {
			flags += string(f.c)
		} else {
			flags += "-"
		}
	}
	ts := o.Time.ToTime().UTC().Format("2006/01/02 15:04:05.000")
	fmt.Fprintf(out, "%s %8s %6d %11.8f %11.8f %11.8f %11.8f %11.5f %11.5f %11.5f %15.8f %15.8f %15.8f %12.3f %3d %s\n",
		ts, o.Cabin, o.Cycle, o.Q[0], o.Q[1], o.Q[2], o.Q[3], o.Euler[0], o.Euler[1], o.Euler[2],
		m.ToDeg(o.Bias[0]), m.ToDeg(o.Bias[1]), m.ToDeg(o.Bias[2]), m.ToDeg(e.Norm())*3600, o.Group, flags)
}
