package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dropDatabas3/keyrotor/internal/bootstrap"
	"github.com/dropDatabas3/keyrotor/internal/config"
	jwtx "github.com/dropDatabas3/keyrotor/internal/jwt"
	"github.com/dropDatabas3/keyrotor/internal/observability/logger"
)

type cli struct {
	out io.Writer

	configPath string
	envFile    string
	backend    string
	dir        string
	prefix     string

	cfg  *config.Config
	keys *jwtx.Manager
}

func newRootCmd(out io.Writer) *cobra.Command {
	c := &cli{out: out}
	root := &cobra.Command{
		Use:           "keys",
		Short:         "Administración de claves de firma RSA (filesystem | environment)",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setup(cmd)
		},
	}
	root.SetOut(out)
	pf := root.PersistentFlags()
	pf.StringVar(&c.configPath, "config", "", "ruta a config.yaml (opcional)")
	pf.StringVar(&c.envFile, "env-file", ".env", "ruta a .env (se ignora si no existe)")
	pf.StringVar(&c.backend, "backend", "", "filesystem | environment (default: config)")
	pf.StringVar(&c.dir, "dir", "", "directorio de claves (backend filesystem)")
	pf.StringVar(&c.prefix, "prefix", "", "prefijo de variables (backend environment)")

	root.AddCommand(c.initCmd(), c.rotateCmd(), c.retireCmd(), c.listCmd(), c.exportCmd(), c.jwksCmd())
	return root
}

func (c *cli) setup(cmd *cobra.Command) error {
	if c.envFile != "" {
		if err := godotenv.Load(c.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("env file %s: %w", c.envFile, err)
		}
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	if c.backend != "" {
		cfg.Keys.Backend = strings.ToLower(strings.TrimSpace(c.backend))
	}
	if c.dir != "" {
		cfg.Keys.Dir = c.dir
	}
	if c.prefix != "" {
		cfg.Keys.EnvPrefix = c.prefix
	}
	c.cfg = cfg

	logger.Init(logger.Config{Env: "dev", Level: "warn", ServiceName: "keys"})

	backend, err := bootstrap.OpenKeyBackend(cfg)
	if err != nil {
		return err
	}
	c.keys, err = jwtx.NewManager(cmd.Context(), backend, jwtx.WithEnvPrefix(cfg.Keys.EnvPrefix))
	return err
}

func (c *cli) printf(format string, args ...any) { fmt.Fprintf(c.out, format, args...) }

// printEnv escribe KEY="VALUE" ordenado, listo para pegar en un .env.
func (c *cli) printEnv(vars map[string]string) error {
	s, err := godotenv.Marshal(vars)
	if err != nil {
		return err
	}
	c.printf("%s\n", s)
	return nil
}

func (c *cli) reportRotation(rot jwtx.Rotation, writeEnv string) error {
	if rot.Env == nil {
		c.printf("kid=%s active=%t backend=%s\n", rot.KID, rot.Activated, c.keys.Backend())
		return nil
	}
	if writeEnv != "" {
		if err := mergeEnvFile(writeEnv, rot.Env); err != nil {
			return err
		}
		c.printf("kid=%s written to %s (%d vars); restart or reload the service to activate it\n", rot.KID, writeEnv, len(rot.Env))
		return nil
	}
	c.printf("# kid=%s: export these variables and restart or reload the service\n", rot.KID)
	return c.printEnv(rot.Env)
}

func (c *cli) initCmd() *cobra.Command {
	var kid, writeEnv string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Genera el primer par de claves",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if kid == "" {
				kid = c.cfg.Keys.BootstrapKID
			}
			rot, err := c.keys.Rotate(cmd.Context(), kid)
			if err != nil {
				return err
			}
			return c.reportRotation(rot, writeEnv)
		},
	}
	cmd.Flags().StringVar(&kid, "kid", "", "kid del par (default: keys.bootstrap_kid)")
	cmd.Flags().StringVar(&writeEnv, "write-env", "", "mezcla las variables exportadas en este .env (backend environment)")
	return cmd
}

func (c *cli) rotateCmd() *cobra.Command {
	var kid, writeEnv string
	cmd := &cobra.Command{
		Use:   "rotate",
		Short: "Genera un par nuevo y lo activa",
		RunE: func(cmd *cobra.Command, _ []string) error {
			prev := c.keys.ActiveKID()
			rot, err := c.keys.Rotate(cmd.Context(), kid)
			if err != nil {
				return err
			}
			if prev != "" && rot.Activated {
				c.printf("previous active kid=%s stays published for verification\n", prev)
			}
			return c.reportRotation(rot, writeEnv)
		},
	}
	cmd.Flags().StringVar(&kid, "kid", "", "kid del par nuevo (default: sintetizado por fecha)")
	cmd.Flags().StringVar(&writeEnv, "write-env", "", "mezcla las variables exportadas en este .env (backend environment)")
	return cmd
}

func (c *cli) retireCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "retire <kid>",
		Short: "Deja una clave solo para verificación",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kid := args[0]
			if err := c.keys.Retire(cmd.Context(), kid); err != nil {
				return err
			}
			if c.keys.Backend() == jwtx.SourceEnvironment {
				c.printf("kid=%s retired in this process only; remove %s and %s from the environment\n", kid,
					jwtx.EnvVarName(c.cfg.Keys.EnvPrefix, kid, "PRIVATE"),
					strings.TrimSuffix(jwtx.EnvVarName(c.cfg.Keys.EnvPrefix, kid, "PRIVATE"), "_B64"))
				return nil
			}
			c.printf("kid=%s retired; active=%s\n", kid, c.keys.ActiveKID())
			return nil
		},
	}
}

func (c *cli) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Lista las claves cargadas",
		RunE: func(_ *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KID\tACTIVE\tCAN_SIGN\tSOURCE\tCREATED_AT")
			for _, k := range c.keys.List() {
				fmt.Fprintf(tw, "%s\t%t\t%t\t%s\t%s\n", k.KID, k.Active, k.CanSign, k.Source, k.CreatedAt.UTC().Format(time.RFC3339))
			}
			return tw.Flush()
		},
	}
}

func (c *cli) exportCmd() *cobra.Command {
	var kid string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Exporta claves como variables de entorno Base64",
		RunE: func(_ *cobra.Command, _ []string) error {
			vars, err := c.keys.ExportEnv(kid)
			if err != nil {
				return err
			}
			return c.printEnv(vars)
		},
	}
	cmd.Flags().StringVar(&kid, "kid", "", "solo este kid (default: todas)")
	return cmd
}

func (c *cli) jwksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "jwks",
		Short: "Imprime el documento JWKS",
		RunE: func(cmd *cobra.Command, _ []string) error {
			doc, err := c.keys.JWKS()
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
			}
			enc := json.NewEncoder(c.out)
			enc.SetIndent("", "  ")
			return enc.Encode(doc)
		},
	}
}

// mergeEnvFile agrega vars al .env conservando las entradas existentes.
func mergeEnvFile(path string, vars map[string]string) error {
	current, err := godotenv.Read(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("read %s: %w", path, err)
		}
		current = map[string]string{}
	}
	for k, v := range vars {
		current[k] = v
	}
	if err := godotenv.Write(current, path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
