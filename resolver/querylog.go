package resolver

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jedisct1/dlog"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"

	"github.com/querist/dnsq/dnswire"
)

// openQueryLog opens the per-query log configured by query_log_file.
// "/dev/stdout" and existing non-regular files (pipes, devices) are
// written to directly; regular files rotate by size per the log_max_*
// settings.
func openQueryLog(cfg Config) (io.Writer, error) {
	fileName := cfg.QueryLogFile
	if fileName == "/dev/stdout" {
		return os.Stdout, nil
	}
	if st, _ := os.Stat(fileName); st != nil && !st.Mode().IsRegular() {
		if st.Mode().IsDir() {
			return nil, fmt.Errorf("query log [%v] is a directory", fileName)
		}
		fp, err := os.OpenFile(fileName, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0644)
		if err != nil {
			return nil, fmt.Errorf("query log [%v]: %w", fileName, err)
		}
		return fp, nil
	}
	return &lumberjack.Logger{
		LocalTime:  true,
		MaxSize:    cfg.LogMaxSize,
		MaxAge:     cfg.LogMaxAge,
		MaxBackups: cfg.LogMaxBackups,
		Filename:   fileName,
		Compress:   true,
	}, nil
}

// logQuery appends one tab-separated line per answered query: time,
// server, qname, qtype, rcode, answer count.
func (r *Resolver) logQuery(server string, req, resp *dnswire.Msg) {
	if r.queryLog == nil {
		return
	}
	q := req.Question[0]
	line := fmt.Sprintf("%s\t%s\t%s\t%s\t%s\t%d\n",
		time.Now().Format(time.RFC3339), server,
		dnswire.CanonicalName(q.Name), dnswire.TypeToString(q.Qtype),
		dnswire.RcodeToString(resp.Rcode), len(resp.Answer))
	if _, err := r.queryLog.Write([]byte(line)); err != nil {
		dlog.Warnf("query log write: [%v]", err)
	}
}
