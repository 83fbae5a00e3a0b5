// Package scheduler ejecuta las tareas periódicas del libro: barrido de alertas y respaldo.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
)

// AlertSweeper reevalúa el catálogo y notifica los artículos en estado de atención.
type AlertSweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// BackupStorer guarda un respaldo completo. Enabled false omite la tarea.
type BackupStorer interface {
	Enabled() bool
	Store(ctx context.Context) (*dto.BackupStoredResponse, error)
}

// Options intervalos de cada tarea; cero desactiva la tarea. StartImmediately
// ejecuta una primera vez al arrancar.
type Options struct {
	AlertInterval    time.Duration
	BackupInterval   time.Duration
	StartImmediately bool
}

// Scheduler envuelve gocron con las tareas del libro registradas.
type Scheduler struct {
	s    gocron.Scheduler
	log  zerolog.Logger
	jobs []string
}

// New registra las tareas. Cada tarea corre en modo singleton: si la anterior
// sigue en curso, la siguiente ejecución se reprograma.
func New(alerts AlertSweeper, backups BackupStorer, opts Options, log zerolog.Logger) (*Scheduler, error) {
	s, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, fmt.Errorf("crear scheduler: %w", err)
	}
	sc := &Scheduler{s: s, log: log}

	if alerts != nil && opts.AlertInterval > 0 {
		if err := sc.add("stock-alert-sweep", opts, opts.AlertInterval, func(ctx context.Context) error {
			_, err := alerts.Sweep(ctx)
			return err
		}); err != nil {
			return nil, err
		}
	}
	if backups != nil && backups.Enabled() && opts.BackupInterval > 0 {
		if err := sc.add("stock-backup", opts, opts.BackupInterval, func(ctx context.Context) error {
			res, err := backups.Store(ctx)
			if err != nil {
				return err
			}
			sc.log.Info().Str("object", res.Object).Int("items", res.Items).Int("movements", res.Movements).Msg("respaldo programado guardado")
			return nil
		}); err != nil {
			return nil, err
		}
	}
	return sc, nil
}

func (sc *Scheduler) add(name string, opts Options, every time.Duration, task func(ctx context.Context) error) error {
	jobOpts := []gocron.JobOption{
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	}
	if opts.StartImmediately {
		jobOpts = append(jobOpts, gocron.WithStartAt(gocron.WithStartImmediately()))
	}
	run := func() {
		ctx, cancel := context.WithTimeout(context.Background(), every)
		defer cancel()
		start := time.Now()
		if err := task(ctx); err != nil {
			sc.log.Error().Err(err).Str("job", name).Msg("tarea programada falló")
			return
		}
		sc.log.Debug().Str("job", name).Dur("elapsed", time.Since(start)).Msg("tarea programada completada")
	}
	if _, err := sc.s.NewJob(gocron.DurationJob(every), gocron.NewTask(run), jobOpts...); err != nil {
		return fmt.Errorf("registrar tarea %s: %w", name, err)
	}
	sc.jobs = append(sc.jobs, name)
	return nil
}

// Jobs nombres de las tareas registradas.
func (sc *Scheduler) Jobs() []string { return sc.jobs }

func (sc *Scheduler) Start() {
	sc.log.Info().Strs("jobs", sc.jobs).Msg("scheduler iniciado")
	sc.s.Start()
}

// Stop espera a que terminen las tareas en curso.
func (sc *Scheduler) Stop() error {
	return sc.s.Shutdown()
}
