package loader

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/eugenenazirov/pivot/internal/settings"
	"github.com/eugenenazirov/pivot/internal/source"
)

const (
	defaultDruidPort = "8082"
	defaultMySQLPort = "3306"
)

// clusterFor turns connection flags into a cluster that is scanned for
// sources on load.
func clusterFor(conn source.Connection) (settings.Cluster, error) {
	cluster := settings.Cluster{
		Name:                     string(conn.Engine),
		Type:                     string(conn.Engine),
		Database:                 conn.Database,
		User:                     conn.User,
		Password:                 conn.Password,
		SourceListScan:           "auto",
		SourceReintrospectOnLoad: true,
	}

	var err error
	switch conn.Engine {
	case source.EngineDruid:
		cluster.Host, err = druidHost(conn.Host)
	case source.EnginePostgres:
		err = applyPostgres(&cluster, conn.Host)
	case source.EngineMySQL:
		cluster.Host, err = hostPort(conn.Host, defaultMySQLPort)
	default:
		err = fmt.Errorf("unsupported engine %q", conn.Engine)
	}
	if err != nil {
		return settings.Cluster{}, err
	}
	return cluster, nil
}

// druidHost accepts host, host:port or an http(s) URL pointing at a broker.
func druidHost(descriptor string) (string, error) {
	if !strings.Contains(descriptor, "://") {
		return hostPort(descriptor, defaultDruidPort)
	}

	u, err := url.Parse(descriptor)
	if err != nil {
		return "", fmt.Errorf("invalid druid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("invalid druid url: unsupported scheme %q", u.Scheme)
	}
	return hostPort(u.Host, defaultDruidPort)
}

// applyPostgres parses a host, host:port, URL or keyword/value descriptor.
// Values given through --database, --user and --password win over the
// descriptor.
func applyPostgres(cluster *settings.Cluster, descriptor string) error {
	explicit := strings.Contains(descriptor, "://") || strings.Contains(descriptor, "=")
	connString := descriptor
	if !explicit {
		host, err := hostPort(descriptor, "5432")
		if err != nil {
			return err
		}
		connString = "postgres://" + host
	}

	cfg, err := pgconn.ParseConfig(connString)
	if err != nil {
		return fmt.Errorf("invalid postgres connection: %w", err)
	}

	cluster.Host = net.JoinHostPort(cfg.Host, strconv.Itoa(int(cfg.Port)))
	if cluster.Database == "" {
		cluster.Database = cfg.Database
	}
	if explicit {
		if cluster.User == "" {
			cluster.User = cfg.User
		}
		if cluster.Password == "" {
			cluster.Password = cfg.Password
		}
	}
	return nil
}

// hostPort normalizes host[:port], adding defaultPort when none is given.
func hostPort(descriptor, defaultPort string) (string, error) {
	descriptor = strings.TrimSpace(descriptor)
	if descriptor == "" {
		return "", fmt.Errorf("empty host")
	}

	host, port, err := net.SplitHostPort(descriptor)
	if err != nil {
		if strings.Contains(err.Error(), "missing port") {
			return net.JoinHostPort(strings.Trim(descriptor, "[]"), defaultPort), nil
		}
		return "", fmt.Errorf("invalid host %q: %w", descriptor, err)
	}
	if host == "" {
		return "", fmt.Errorf("invalid host %q: missing hostname", descriptor)
	}

	n, err := strconv.Atoi(port)
	if err != nil || n < 1 || n > 65535 {
		return "", fmt.Errorf("invalid port %q", port)
	}
	return net.JoinHostPort(host, port), nil
}
