package cmd

import (
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	sim "github.com/epi-sim/epi-sim/sim"
)

var (
	// CLI flags for the simulation run
	seed           int64  // Seed for all random streams
	days           int    // Number of simulated days
	logLevel       string // Log verbosity level
	population     int    // Total population size
	hospitalBeds   int64  // Total ward bed capacity
	icuUnits       int64  // Total intensive-care capacity
	workers        int    // Worker pool size for the concurrent phase (0 = GOMAXPROCS)
	initialInfects int    // Infections seeded on day 0
	scenarioPath   string // Optional scenario YAML file
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "epi-sim",
	Short: "Agent-based epidemic simulator",
}

// runCmd executes the simulation using parameters from CLI flags and an
// optional scenario file
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the epidemic simulation",
	Run: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		var scenario *ScenarioConfig
		if scenarioPath != "" {
			scenario, err = loadScenarioConfig(scenarioPath)
			if err != nil {
				logrus.Fatalf("Failed to load scenario: %v", err)
			}
			if scenario.Name != "" {
				logrus.Infof("Using scenario %q", scenario.Name)
			}
		}

		cfg := buildConfig(scenario)
		runDays := days
		dailyImports := 0
		if scenario != nil {
			if scenario.Days > 0 {
				runDays = scenario.Days
			}
			dailyImports = scenario.DailyImports
		}

		logrus.Infof("Starting simulation: population=%d days=%d beds=%d icu=%d seed=%d",
			sumInts(cfg.AgeBucketCounts), runDays, cfg.Healthcare.HospitalBeds, cfg.Healthcare.ICUUnits, cfg.Seed)

		clock, err := sim.NewClock(cfg)
		if err != nil {
			logrus.Fatalf("Failed to build simulation: %v", err)
		}
		if scenario != nil {
			for _, iv := range scenario.Interventions {
				if err := clock.AddIntervention(iv.Day, iv.Name, iv.Value); err != nil {
					logrus.Fatalf("Bad intervention in scenario: %v", err)
				}
			}
		}

		startTime := time.Now()
		clock.InfectPeople(initialInfects)
		for day := 0; day < runDays; day++ {
			clock.InfectPeople(dailyImports)
			if err := clock.Iterate(); err != nil {
				logrus.Fatalf("Simulation failed on day %d: %v", day, err)
			}
		}
		clock.Metrics.Print()
		logrus.Infof("Simulation complete in %v.", time.Since(startTime).Round(time.Millisecond))
	},
}

// buildConfig layers scenario overrides over the flag-driven defaults.
func buildConfig(scenario *ScenarioConfig) sim.ClockConfig {
	pop, runSeed := population, seed
	if scenario != nil {
		if scenario.Population > 0 {
			pop = scenario.Population
		}
		if scenario.Seed != 0 {
			runSeed = scenario.Seed
		}
	}
	cfg := defaultClockConfig(pop, runSeed)
	cfg.Healthcare.HospitalBeds = hospitalBeds
	cfg.Healthcare.ICUUnits = icuUnits
	cfg.Workers = workers
	if scenario != nil {
		if len(scenario.AgeBucketCounts) > 0 {
			cfg.AgeBucketCounts = scenario.AgeBucketCounts
		}
		if scenario.HospitalBeds > 0 {
			cfg.Healthcare.HospitalBeds = scenario.HospitalBeds
		}
		if scenario.ICUUnits > 0 {
			cfg.Healthcare.ICUUnits = scenario.ICUUnits
		}
		cfg.StartDate = scenario.startDate(cfg.StartDate)
		applyDiseaseOverrides(&cfg.Disease, scenario.Disease)
	}
	return cfg
}

func applyDiseaseOverrides(params *sim.DiseaseParams, o *DiseaseOverrides) {
	if o == nil {
		return
	}
	if o.PInfection != nil {
		params.PInfection = *o.PInfection
	}
	if o.PAsymptomatic != nil {
		params.PAsymptomatic = *o.PAsymptomatic
	}
	if o.IncubationMeanDays != nil {
		params.IncubationMeanDays = *o.IncubationMeanDays
	}
	if o.OnsetToRemovedMeanDays != nil {
		params.OnsetToRemovedMeanDays = *o.OnsetToRemovedMeanDays
	}
	if o.PWardDeathWithoutBed != nil {
		params.PWardDeathWithoutBed = *o.PWardDeathWithoutBed
	}
}

func sumInts(xs []int) int {
	s := 0
	for _, x := range xs {
		s += x
	}
	return s
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	runCmd.Flags().Int64Var(&seed, "seed", 42, "Seed for all random streams")
	runCmd.Flags().IntVar(&days, "days", 180, "Number of simulated days")
	runCmd.Flags().StringVar(&logLevel, "log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")

	runCmd.Flags().IntVar(&population, "population", 1650000, "Total population size")
	runCmd.Flags().Int64Var(&hospitalBeds, "hospital-beds", 2600, "Total ward bed capacity")
	runCmd.Flags().Int64Var(&icuUnits, "icu-units", 300, "Total intensive-care capacity")
	runCmd.Flags().IntVar(&workers, "workers", 0, "Workers for the concurrent phase (0 = GOMAXPROCS)")
	runCmd.Flags().IntVar(&initialInfects, "initial-infections", 50, "Infections seeded on day 0")
	runCmd.Flags().StringVar(&scenarioPath, "scenario", "", "Scenario YAML file with interventions")

	rootCmd.AddCommand(runCmd)
}
