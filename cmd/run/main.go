// Command run sweeps the ansatz depth of the basis mapping task,
// training each configuration and gathering the results into a report.
package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"
	"gopkg.in/yaml.v3"

	"qmap"
	"qmap/circuit"
	"qmap/store"
)

const (
	fnameCost       = "cost.csv"
	fnameDone       = "done.txt"
	fnameStatistics = "statistics.txt"
	fnameResults    = "results.db"
	dirUnitary      = "unitary"
)

var (
	runDir  = flag.String("d", filepath.Join("runs", "qmap"), "run directory")
	cfgPath = flag.String("c", "", "sweep configuration file")
)

// Config is the sweep configuration.
type Config struct {
	Depths       []int   `yaml:"depths"`
	Seeds        []int   `yaml:"seeds"`
	Iterations   int     `yaml:"iterations"`
	LearningRate float64 `yaml:"learningRate"`
}

func defaultConfig() Config {
	return Config{
		Depths:       []int{2, 4, 6, 8, 10},
		Seeds:        []int{0, 1, 2},
		Iterations:   200,
		LearningRate: 0.1,
	}
}

func readConfig(fpath string) (Config, error) {
	cfg := defaultConfig()
	if fpath == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(fpath)
	if err != nil {
		return Config{}, errors.Wrap(err, "")
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, errors.Wrap(err, fpath)
	}
	return cfg, nil
}

func solve(dir string, db *store.DB, cfg Config, depth, seed int) error {
	donePath := filepath.Join(dir, fnameDone)
	if _, err := os.Stat(donePath); err == nil {
		return nil
	}
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return errors.Wrap(err, "")
	}

	task := qmap.NewTask(depth)
	opt := qmap.NewTrainOptions().Iterations(cfg.Iterations).LearningRate(cfg.LearningRate).Seed(uint64(seed))
	res := qmap.Train(task, opt)

	if err := writeCost(dir, res.Cost); err != nil {
		return errors.Wrap(err, "")
	}

	stats, err := qmap.GetStatistics(task, res.Params)
	if err != nil {
		return errors.Wrap(err, "")
	}
	b, err := json.Marshal(stats)
	if err != nil {
		return errors.Wrap(err, "")
	}
	if err := os.WriteFile(filepath.Join(dir, fnameStatistics), b, 0644); err != nil {
		return errors.Wrap(err, "")
	}

	uDir := filepath.Join(dir, dirUnitary)
	if err := os.MkdirAll(uDir, os.ModePerm); err != nil {
		return errors.Wrap(err, "")
	}
	if err := qmap.Unitary(task.Ansatz, res.Params).WriteCOO(uDir); err != nil {
		return errors.Wrap(err, "")
	}

	run := store.Run{Depth: depth, Seed: seed, FinalCost: stats.FinalCost, Holdout: stats.Holdout, Fidelities: stats.Fidelities}
	if err := db.PutRun(run); err != nil {
		return errors.Wrap(err, "")
	}
	if err := db.PutHistory(depth, seed, res.Cost); err != nil {
		return errors.Wrap(err, "")
	}

	if err := os.WriteFile(donePath, nil, 0644); err != nil {
		return errors.Wrap(err, "")
	}
	return nil
}

func writeCost(dir string, cost []float64) error {
	f, err := os.Create(filepath.Join(dir, fnameCost))
	if err != nil {
		return errors.Wrap(err, "")
	}
	w := csv.NewWriter(f)

	for i, c := range cost {
		if err1 := w.Write([]string{strconv.Itoa(i), strconv.FormatFloat(c, 'g', -1, 64)}); err1 != nil && err == nil {
			err = errors.Wrap(err1, "")
			break
		}
	}

	w.Flush()
	if err1 := w.Error(); err1 != nil && err == nil {
		err = errors.Wrap(err1, "")
	}
	if err1 := f.Close(); err1 != nil && err == nil {
		err = errors.Wrap(err1, "")
	}
	return err
}

func gather(db *store.DB, cfg Config) error {
	runs, err := db.Runs()
	if err != nil {
		return errors.Wrap(err, "")
	}
	byDepth := make(map[int][]store.Run)
	for _, r := range runs {
		byDepth[r.Depth] = append(byDepth[r.Depth], r)
	}

	fmt.Printf("depth,params,cost_mean,cost_std,holdout_mean\n")
	for _, depth := range cfg.Depths {
		rs := byDepth[depth]
		if len(rs) == 0 {
			continue
		}
		costs := make([]float64, 0, len(rs))
		holdouts := make([]float64, 0, len(rs))
		for _, r := range rs {
			costs = append(costs, r.FinalCost)
			holdouts = append(holdouts, r.Holdout)
		}

		numParams := circuit.NewAnsatz(qmap.NumQubits, depth).NumParams()
		fmt.Printf("%d,%d,%f,%f,%f\n", depth, numParams, stat.Mean(costs, nil), stat.StdDev(costs, nil), stat.Mean(holdouts, nil))
	}
	return nil
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds | log.Llongfile | log.LstdFlags)

	if err := mainWithErr(); err != nil {
		log.Fatalf("%+v", err)
	}
}

func mainWithErr() error {
	cfg, err := readConfig(*cfgPath)
	if err != nil {
		return errors.Wrap(err, "")
	}
	if err := os.MkdirAll(*runDir, os.ModePerm); err != nil {
		return errors.Wrap(err, "")
	}

	db, err := store.Open(filepath.Join(*runDir, fnameResults))
	if err != nil {
		return errors.Wrap(err, "")
	}
	defer db.Close()

	for _, depth := range cfg.Depths {
		for _, seed := range cfg.Seeds {
			dir := filepath.Join(*runDir, fmt.Sprintf("d%d", depth), fmt.Sprintf("s%d", seed))
			if err := solve(dir, db, cfg, depth, seed); err != nil {
				return errors.Wrap(err, fmt.Sprintf("%d %d", depth, seed))
			}
			log.Printf("depth %d seed %d", depth, seed)
		}
	}

	if err := gather(db, cfg); err != nil {
		return errors.Wrap(err, "")
	}
	return nil
}
