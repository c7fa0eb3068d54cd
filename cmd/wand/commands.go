package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/labelwand/internal/checkpoint"
	"github.com/banshee-data/labelwand/internal/config"
	"github.com/banshee-data/labelwand/internal/fillmode"
	"github.com/banshee-data/labelwand/internal/grid"
	"github.com/banshee-data/labelwand/internal/httputil"
	"github.com/banshee-data/labelwand/internal/monitoring"
	"github.com/banshee-data/labelwand/internal/preview"
	"github.com/banshee-data/labelwand/internal/regiongrow"
	"github.com/banshee-data/labelwand/internal/report"
	"github.com/banshee-data/labelwand/internal/volume"
	"github.com/banshee-data/labelwand/internal/wand"
)

func (a *app) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	return fs
}

// parse parses args and turns flag errors into usage errors. It reports
// false for -h.
func parse(fs *flag.FlagSet, args []string) (bool, error) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return false, nil
		}
		return false, fmt.Errorf("%w: %s: %v", errUsage, fs.Name(), err)
	}
	if fs.NArg() > 0 {
		return false, fmt.Errorf("%w: %s: unexpected arguments %q", errUsage, fs.Name(), fs.Args())
	}
	return true, nil
}

// routeLogs sends the package log streams through monitoring.Logf. Failures
// are always logged; verbose adds per-fill summaries and trace adds
// per-step telemetry.
func routeLogs(verbose, trace bool) {
	ops := monitoring.Writer("")
	var diag, tr io.Writer
	if verbose || trace {
		diag = ops
	}
	if trace {
		tr = ops
	}
	regiongrow.SetLogWriters(ops, diag, tr)
	wand.SetLogWriters(ops, diag, tr)
	checkpoint.SetLogWriters(ops, diag, tr)
}

// sessionFor keys the undo history by the absolute path of the label file,
// so fill and undo on the same file share a session without bookkeeping.
func sessionFor(labelsPath string) string {
	if abs, err := filepath.Abs(labelsPath); err == nil {
		return abs
	}
	return labelsPath
}

func (a *app) fill(args []string) error {
	fs := a.flagSet("fill")
	bgPath := fs.String("background", "", "Background volume file (required)")
	labelsPath := fs.String("labels", "", "Label volume file, created empty if missing (required)")
	cfgPath := fs.String("config", "", "Wand config JSON (defaults to "+config.DefaultConfigPath+" if present)")
	dbPath := fs.String("db", "wand.db", "Checkpoint database; empty disables undo")
	sessionID := fs.String("session", "", "Undo session id (defaults to the label file path)")
	seedArg := fs.String("seed", "", "Seed index as k,j,i (3D) or row,col (2D)")
	pickArg := fs.String("pick", "", "View pick as x,y, mapped through -xform")
	xformArg := fs.String("xform", "", "Row-major 4x4 xy-to-ijk matrix, 16 comma-separated values (default identity)")
	tolerance := fs.Float64("tolerance", config.DefaultTolerance, "Half-width of the acceptance band")
	maxPixels := fs.Float64("max-pixels", config.DefaultMaxPixels, "Stop once more than this many labels have changed")
	label := fs.Int("label", config.DefaultLabel, "Label value to paint")
	paintOver := fs.Bool("paint-over", config.DefaultPaintOver, "Overwrite existing labels")
	mode := fs.String("mode", config.DefaultMode, "Fill mode: plane or volume")
	orientation := fs.String("orientation", config.DefaultOrientation, "Plane orientation: axial, coronal or sagittal")
	previewPath := fs.String("preview", "", "Write a PNG of the seed's slice after the fill")
	reportPath := fs.String("report", "", "Write an HTML report of the fill")
	bins := fs.Int("bins", report.DefaultBins, "Histogram bins in the report")
	verbose := fs.Bool("v", false, "Log per-fill summaries")
	trace := fs.Bool("trace", false, "Log per-step telemetry")
	if ok, err := parse(fs, args); !ok {
		return err
	}
	routeLogs(*verbose, *trace)

	if *bgPath == "" || *labelsPath == "" {
		return fmt.Errorf("%w: fill: -background and -labels are required", errUsage)
	}
	pick, err := parseClick(*seedArg, *pickArg, *xformArg)
	if err != nil {
		return fmt.Errorf("%w: fill: %v", errUsage, err)
	}

	cfg, err := a.loadConfig(*cfgPath)
	if err != nil {
		return err
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "tolerance":
			cfg.Tolerance = tolerance
		case "max-pixels":
			cfg.MaxPixels = maxPixels
		case "label":
			cfg.Label = label
		case "paint-over":
			cfg.PaintOver = paintOver
		case "mode":
			cfg.Mode = mode
		case "orientation":
			cfg.Orientation = orientation
		}
	})
	if err := cfg.Validate(); err != nil {
		return err
	}

	bg, err := volume.LoadBackground(a.fs, *bgPath)
	if err != nil {
		return err
	}
	labels, err := volume.LoadOrCreateLabels(a.fs, *labelsPath, bg.Shape())
	if err != nil {
		return err
	}

	ps := config.NewMapParameterSet()
	config.WriteConfig(ps, cfg)
	config.SetDefaults(ps)

	undo := regiongrow.NoCheckpoint
	if *dbPath != "" {
		store, err := checkpoint.Open(*dbPath)
		if err != nil {
			return err
		}
		defer store.Close()
		if *sessionID == "" {
			*sessionID = sessionFor(*labelsPath)
		}
		undo = checkpoint.NewManager(store, labels, *sessionID)
	}

	effect, ok := wand.DefaultRegistry().Lookup("Wand")
	if !ok {
		return errors.New("wand effect is not registered")
	}
	doc := wand.NewMemoryDocument(bg, labels)
	tool := effect.New(doc, config.ParameterSetSource{Set: ps}, undo)
	tool.Mode = cfg.GetMode()
	tool.Orientation = cfg.GetOrientation()

	seed, err := pick.seed(bg.Shape())
	if err != nil {
		return err
	}
	res, err := tool.ApplyAt(seed)
	if err != nil {
		return err
	}

	if err := volume.SaveLabels(a.fs, *labelsPath, labels); err != nil {
		return err
	}

	summary := report.Summarize(bg, res, *bins)
	if *previewPath != "" {
		if err := a.writeFile(*previewPath, func(w io.Writer) error {
			return preview.RenderSlice(w, bg, labels, tool.Orientation, seed, preview.Options{})
		}); err != nil {
			return err
		}
	}
	if *reportPath != "" {
		title := fmt.Sprintf("wand fill of %s", filepath.Base(*labelsPath))
		if err := a.writeFile(*reportPath, func(w io.Writer) error {
			return report.WriteHTML(w, title, summary)
		}); err != nil {
			return err
		}
	}

	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}

// click is where the user asked to fill: a seed index, or a view pick that
// needs the grid shape to become one.
type click struct {
	at    *grid.Coord
	xy    [2]float64
	xform mat.Matrix
}

func parseClick(seedArg, pickArg, xformArg string) (click, error) {
	if (seedArg == "") == (pickArg == "") {
		return click{}, errors.New("exactly one of -seed and -pick is required")
	}
	if seedArg != "" {
		seed, err := grid.ParseCoord(seedArg)
		if err != nil {
			return click{}, err
		}
		return click{at: &seed}, nil
	}
	xy, err := parseFloats(pickArg, 2)
	if err != nil {
		return click{}, fmt.Errorf("-pick: %w", err)
	}
	m, err := parseTransform(xformArg)
	if err != nil {
		return click{}, fmt.Errorf("-xform: %w", err)
	}
	return click{xy: [2]float64{xy[0], xy[1]}, xform: m}, nil
}

func (c click) seed(shape grid.Shape) (grid.Coord, error) {
	if c.at != nil {
		return *c.at, nil
	}
	return wand.PickSeed(c.xy, c.xform, shape)
}

func (a *app) loadConfig(path string) (*config.WandConfig, error) {
	if path == "" {
		if !a.fs.Exists(config.DefaultConfigPath) {
			return config.DefaultWandConfig(), nil
		}
		path = config.DefaultConfigPath
	}
	return config.LoadWandConfig(path)
}

// writeFile renders into memory first so a failed render leaves no partial
// file behind.
func (a *app) writeFile(path string, render func(io.Writer) error) error {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		return err
	}
	w, err := a.fs.Create(path)
	if err != nil {
		return err
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		w.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return w.Close()
}

func parseFloats(s string, n int) ([]float64, error) {
	fields := strings.Split(s, ",")
	if len(fields) != n {
		return nil, fmt.Errorf("want %d comma-separated values, got %d", n, len(fields))
	}
	out := make([]float64, n)
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func parseTransform(s string) (mat.Matrix, error) {
	if s == "" {
		return identity4(), nil
	}
	vals, err := parseFloats(s, 16)
	if err != nil {
		return nil, err
	}
	return mat.NewDense(4, 4, vals), nil
}

func identity4() *mat.Dense {
	m := mat.NewDense(4, 4, nil)
	for i := 0; i < 4; i++ {
		m.Set(i, i, 1)
	}
	return m
}

// session is an open undo history bound to a label file.
type session struct {
	*checkpoint.Manager
	labels     *grid.Dense[int32]
	labelsPath string
	store      *checkpoint.Store
}

func (s *session) Close() error { return s.store.Close() }

// openSession registers the shared flags on fs, parses args and opens the
// history. It returns nil, nil for -h.
func (a *app) openSession(fs *flag.FlagSet, args []string) (*session, error) {
	labelsPath := fs.String("labels", "", "Label volume file (required)")
	dbPath := fs.String("db", "wand.db", "Checkpoint database")
	id := fs.String("session", "", "Undo session id (defaults to the label file path)")
	if ok, err := parse(fs, args); !ok {
		return nil, err
	}
	routeLogs(false, false)
	if *labelsPath == "" {
		return nil, fmt.Errorf("%w: %s: -labels is required", errUsage, fs.Name())
	}
	labels, err := volume.LoadLabels(a.fs, *labelsPath)
	if err != nil {
		return nil, err
	}
	store, err := checkpoint.Open(*dbPath)
	if err != nil {
		return nil, err
	}
	if *id == "" {
		*id = sessionFor(*labelsPath)
	}
	return &session{
		Manager:    checkpoint.NewManager(store, labels, *id),
		labels:     labels,
		labelsPath: *labelsPath,
		store:      store,
	}, nil
}

func (a *app) undo(args []string) error {
	s, err := a.openSession(a.flagSet("undo"), args)
	if s == nil {
		return err
	}
	defer s.Close()

	cp, err := s.Undo()
	if errors.Is(err, checkpoint.ErrNoCheckpoint) {
		fmt.Fprintln(a.stdout, "nothing to undo")
		return nil
	}
	if err != nil {
		return err
	}
	if err := volume.SaveLabels(a.fs, s.labelsPath, s.labels); err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "restored %s from %s (%d labeled)\n",
		cp.ID, cp.TakenAt.Format(time.RFC3339), cp.LabeledCount)
	return nil
}

func (a *app) history(args []string) error {
	fs := a.flagSet("history")
	limit := fs.Int("limit", 20, "Maximum checkpoints to list")
	s, err := a.openSession(fs, args)
	if s == nil {
		return err
	}
	defer s.Close()

	cps, err := s.History(*limit)
	if err != nil {
		return err
	}
	if len(cps) == 0 {
		fmt.Fprintln(a.stdout, "no checkpoints")
		return nil
	}
	for _, cp := range cps {
		fmt.Fprintf(a.stdout, "%s  %s  %-8s %s labeled=%d\n",
			cp.TakenAt.Format(time.RFC3339Nano), cp.ID, cp.Reason, cp.Shape, cp.LabeledCount)
	}
	return nil
}

func (a *app) prune(args []string) error {
	fs := a.flagSet("prune")
	keep := fs.Int("keep", 10, "Checkpoints to keep")
	s, err := a.openSession(fs, args)
	if s == nil {
		return err
	}
	defer s.Close()

	if *keep < 0 {
		return fmt.Errorf("%w: prune: -keep must be >= 0", errUsage)
	}
	n, err := s.Prune(*keep)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "pruned %d checkpoints\n", n)
	return nil
}

func parseExtents(s string) ([]int, error) {
	fields := strings.Split(s, "x")
	out := make([]int, len(fields))
	for i, f := range fields {
		v, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return nil, fmt.Errorf("size %q: %w", s, err)
		}
		out[i] = v
	}
	return out, nil
}

func (a *app) phantom(args []string) error {
	fs := a.flagSet("phantom")
	out := fs.String("out", "", "Output background volume (required)")
	size := fs.String("size", "64x64", "Extents, e.g. 64x64 or 32x64x64 (slices x rows x cols)")
	inside := fs.Float64("inside", 200, "Intensity inside the ellipsoid")
	outside := fs.Float64("outside", 50, "Intensity outside the ellipsoid")
	radius := fs.Float64("radius", 0.5, "Ellipsoid radius as a fraction of each half-extent")
	noise := fs.Float64("noise", 0, "Gaussian noise standard deviation")
	seed := fs.Int64("rand-seed", 1, "Noise seed")
	if ok, err := parse(fs, args); !ok {
		return err
	}
	if *out == "" {
		return fmt.Errorf("%w: phantom: -out is required", errUsage)
	}
	extents, err := parseExtents(*size)
	if err != nil {
		return fmt.Errorf("%w: phantom: %v", errUsage, err)
	}
	bg, err := volume.Phantom{
		Extents: extents,
		Inside:  *inside,
		Outside: *outside,
		Radius:  *radius,
		Noise:   *noise,
		Seed:    *seed,
	}.Build()
	if err != nil {
		return err
	}
	if err := volume.SaveBackground(a.fs, *out, bg); err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "wrote %s background to %s\n", bg.Shape(), *out)
	return nil
}

func (a *app) importSlices(args []string) error {
	fs := a.flagSet("import")
	out := fs.String("out", "", "Output background volume (required)")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return fmt.Errorf("%w: import: %v", errUsage, err)
	}
	if *out == "" || fs.NArg() == 0 {
		return fmt.Errorf("%w: import: -out and at least one image are required", errUsage)
	}
	bg, err := volume.ImportSlices(a.fs, fs.Args())
	if err != nil {
		return err
	}
	if err := volume.SaveBackground(a.fs, *out, bg); err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "wrote %s background to %s\n", bg.Shape(), *out)
	return nil
}

func (a *app) preview(args []string) error {
	fs := a.flagSet("preview")
	bgPath := fs.String("background", "", "Background volume file (required)")
	labelsPath := fs.String("labels", "", "Label volume file")
	out := fs.String("out", "", "Output PNG (required)")
	at := fs.String("at", "", "Coordinate whose slice is rendered (3D only)")
	orientation := fs.String("orientation", config.DefaultOrientation, "Slice orientation: axial, coronal or sagittal")
	if ok, err := parse(fs, args); !ok {
		return err
	}
	if *bgPath == "" || *out == "" {
		return fmt.Errorf("%w: preview: -background and -out are required", errUsage)
	}
	o, err := fillmode.ParseOrientation(*orientation)
	if err != nil {
		return fmt.Errorf("%w: preview: %v", errUsage, err)
	}
	bg, err := volume.LoadBackground(a.fs, *bgPath)
	if err != nil {
		return err
	}
	var labels grid.Labels = grid.NewDense[int32](bg.Shape())
	if *labelsPath != "" {
		l, err := volume.LoadLabels(a.fs, *labelsPath)
		if err != nil {
			return err
		}
		labels = l
	}
	var c grid.Coord
	if *at != "" {
		if c, err = grid.ParseCoord(*at); err != nil {
			return fmt.Errorf("%w: preview: %v", errUsage, err)
		}
	}
	return a.writeFile(*out, func(w io.Writer) error {
		return preview.RenderSlice(w, bg, labels, o, c, preview.Options{})
	})
}

func (a *app) effects(args []string) error {
	fs := a.flagSet("effects")
	if ok, err := parse(fs, args); !ok {
		return err
	}
	reg := wand.DefaultRegistry()
	defer reg.Close()
	for _, name := range reg.Names() {
		info, _ := reg.Lookup(name)
		fmt.Fprintf(a.stdout, "%-10s %s\n", info.Name, info.ToolTip)
	}
	return nil
}

// newServeMux mounts the checkpoint debug pages and a JSON listing of the
// stored sessions.
func newServeMux(store *checkpoint.Store) (*http.ServeMux, error) {
	mux := http.NewServeMux()
	if err := store.AttachAdminRoutes(mux); err != nil {
		return nil, err
	}
	mux.HandleFunc("/api/sessions", httputil.GetOnly(func(w http.ResponseWriter, r *http.Request) {
		sessions, err := store.Sessions()
		if err != nil {
			httputil.WriteError(w, http.StatusInternalServerError, err.Error())
			return
		}
		httputil.WriteJSON(w, http.StatusOK, sessions)
	}))
	mux.HandleFunc("/api/checkpoints", httputil.GetOnly(func(w http.ResponseWriter, r *http.Request) {
		session := r.URL.Query().Get("session")
		if session == "" {
			httputil.WriteError(w, http.StatusBadRequest, "session is required")
			return
		}
		cps, err := store.List(session, 100)
		if err != nil {
			httputil.WriteError(w, http.StatusInternalServerError, err.Error())
			return
		}
		httputil.WriteJSON(w, http.StatusOK, cps)
	}))
	return mux, nil
}

func (a *app) serve(args []string) error {
	fs := a.flagSet("serve")
	dbPath := fs.String("db", "wand.db", "Checkpoint database")
	listen := fs.String("listen", ":8080", "HTTP listen address")
	if ok, err := parse(fs, args); !ok {
		return err
	}
	routeLogs(true, false)

	store, err := checkpoint.Open(*dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	mux, err := newServeMux(store)
	if err != nil {
		return err
	}
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Printf("got request %q", r.URL.Path)
		mux.ServeHTTP(w, r)
	})
	server := &http.Server{Addr: *listen, Handler: h}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		log.Printf("serving checkpoint debug pages for %s on %s", *dbPath, *listen)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	log.Println("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
		if err := server.Close(); err != nil {
			log.Printf("HTTP server force close error: %v", err)
		}
	}
	return nil
}

func (a *app) migrate(args []string) error {
	fs := a.flagSet("migrate")
	dbPath := fs.String("db", "wand.db", "Checkpoint database")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return fmt.Errorf("%w: migrate: %v", errUsage, err)
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: migrate: want one of up, down, version", errUsage)
	}

	store, err := checkpoint.OpenNoMigrate(*dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	switch fs.Arg(0) {
	case "up":
		err = store.MigrateUp()
	case "down":
		err = store.MigrateDown()
	case "version":
	default:
		return fmt.Errorf("%w: migrate: unknown action %q", errUsage, fs.Arg(0))
	}
	if err != nil {
		return err
	}
	v, dirty, err := store.MigrateVersion()
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "schema version %d dirty=%t\n", v, dirty)
	return nil
}
