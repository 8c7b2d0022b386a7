// Package entity defines the request and response shapes of the web panel.
package entity

import (
	"crypto/tls"
	"math"
	"net"
	"strings"
	"time"

	"github.com/hospital-ui/hospital-ui/util/common"

	"github.com/robfig/cron/v3"
)

// Msg is the envelope of every JSON response.
type Msg struct {
	Success bool   `json:"success"`
	Msg     string `json:"msg"`
	Obj     any    `json:"obj"`
}

// AllSetting mirrors the settings table. Keys are the json tags.
type AllSetting struct {
	WebListen     string `json:"webListen" form:"webListen"`
	WebPort       int    `json:"webPort" form:"webPort"`
	WebCertFile   string `json:"webCertFile" form:"webCertFile"`
	WebKeyFile    string `json:"webKeyFile" form:"webKeyFile"`
	WebBasePath   string `json:"webBasePath" form:"webBasePath"`
	SessionMaxAge int    `json:"sessionMaxAge" form:"sessionMaxAge"` // minutes
	TimeLocation  string `json:"timeLocation" form:"timeLocation"`

	BackupOnStart bool   `json:"backupOnStart" form:"backupOnStart"`
	BackupCron    string `json:"backupCron" form:"backupCron"`       // empty disables scheduled backups
	RetentionCron string `json:"retentionCron" form:"retentionCron"` // empty disables scheduled cleanup
	RetentionDays int    `json:"retentionDays" form:"retentionDays"`
}

// CronParser parses the backup and retention schedules. Seconds are optional.
var CronParser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

func (s *AllSetting) CheckValid() error {
	if s.WebListen != "" {
		ip := net.ParseIP(s.WebListen)
		if ip == nil {
			return common.NewError("web listen is not valid ip:", s.WebListen)
		}
	}

	if s.WebPort <= 0 || s.WebPort > math.MaxUint16 {
		return common.NewError("web port is not a valid port:", s.WebPort)
	}

	if s.WebCertFile != "" || s.WebKeyFile != "" {
		_, err := tls.LoadX509KeyPair(s.WebCertFile, s.WebKeyFile)
		if err != nil {
			return common.NewErrorf("cert file <%v> or key file <%v> invalid: %v", s.WebCertFile, s.WebKeyFile, err)
		}
	}

	if !strings.HasPrefix(s.WebBasePath, "/") {
		s.WebBasePath = "/" + s.WebBasePath
	}
	if !strings.HasSuffix(s.WebBasePath, "/") {
		s.WebBasePath += "/"
	}

	if s.SessionMaxAge < 0 {
		return common.NewError("session max age can not be negative:", s.SessionMaxAge)
	}

	if s.RetentionDays <= 0 {
		return common.NewError("retention days must be greater than 0:", s.RetentionDays)
	}

	for name, spec := range map[string]string{"backup": s.BackupCron, "retention": s.RetentionCron} {
		if spec == "" {
			continue
		}
		if _, err := CronParser.Parse(spec); err != nil {
			return common.NewErrorf("%s schedule <%v> invalid: %v", name, spec, err)
		}
	}

	_, err := time.LoadLocation(s.TimeLocation)
	if err != nil {
		return common.NewError("time location not exist:", s.TimeLocation)
	}

	return nil
}
