// cmd/container.go
//
// Root composition root. Owns infrastructure (file storage, mail
// transport, AWS clients) and wires the dispatch modules. This is the
// only place that knows about ALL modules.
package main

import (
	"context"

	"github.com/Abraxas-365/bulkmailer/pkg/bulkx"
	"github.com/Abraxas-365/bulkmailer/pkg/config"
	"github.com/Abraxas-365/bulkmailer/pkg/fsx"
	"github.com/Abraxas-365/bulkmailer/pkg/fsx/fsxlocal"
	"github.com/Abraxas-365/bulkmailer/pkg/fsx/fsxs3"
	"github.com/Abraxas-365/bulkmailer/pkg/logx"
	"github.com/Abraxas-365/bulkmailer/pkg/mailx"
	"github.com/Abraxas-365/bulkmailer/pkg/mailx/mailxses"
	"github.com/Abraxas-365/bulkmailer/pkg/mailx/mailxsmtp"
	"github.com/Abraxas-365/bulkmailer/pkg/recipx"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/robfig/cron/v3"
)

// Container holds shared infrastructure and composed module handlers.
type Container struct {
	Config *config.Config

	// Infrastructure (shared across all modules)
	FileSystem fsx.FileSystem
	Dialer     mailx.Dialer
	S3Client   *s3.Client
	SESClient  *ses.Client

	// Modules
	JobStore       *bulkx.Store
	BulkService    *bulkx.Service
	BulkHandlers   *bulkx.Handlers
	UploadHandlers *recipx.Handlers

	sweeper *cron.Cron
}

func NewContainer(cfg *config.Config) *Container {
	logx.Info("🔧 Initializing application container...")

	c := &Container{Config: cfg}

	c.initInfrastructure()
	c.initModules()

	logx.Info("✅ Application container initialized")
	return c
}

// ---------------------------------------------------------------------------
// Infrastructure — file storage, mail transport
// ---------------------------------------------------------------------------

func (c *Container) initInfrastructure() {
	logx.Info("🏗️ Initializing infrastructure...")

	c.initFileStorage()
	c.initMailTransport()

	logx.Info("✅ Infrastructure initialized")
}

func (c *Container) initFileStorage() {
	switch c.Config.Storage.Mode {
	case "s3":
		cfg, err := awsConfig.LoadDefaultConfig(context.TODO(),
			awsConfig.WithRegion(c.Config.Storage.AWSRegion))
		if err != nil {
			logx.Fatalf("Unable to load AWS SDK config: %v", err)
		}
		c.S3Client = s3.NewFromConfig(cfg)
		c.FileSystem = fsxs3.NewS3FileSystem(c.S3Client, c.Config.Storage.AWSBucket, "")
		logx.Infof("  ✅ S3 file system configured (bucket: %s, region: %s)",
			c.Config.Storage.AWSBucket, c.Config.Storage.AWSRegion)

	case "local":
		localFS, err := fsxlocal.NewLocalFileSystem(c.Config.Storage.UploadDir)
		if err != nil {
			logx.Fatalf("Failed to initialize local file system: %v", err)
		}
		c.FileSystem = localFS
		logx.Infof("  ✅ Local file system configured (path: %s)", localFS.GetBasePath())

	default:
		logx.Fatalf("Unknown STORAGE_MODE: %s (use 'local' or 's3')", c.Config.Storage.Mode)
	}
}

func (c *Container) initMailTransport() {
	switch c.Config.Mail.Provider {
	case "ses":
		cfg, err := awsConfig.LoadDefaultConfig(context.TODO(),
			awsConfig.WithRegion(c.Config.Mail.AWSRegion))
		if err != nil {
			logx.Fatalf("Unable to load AWS SDK config: %v", err)
		}
		c.SESClient = ses.NewFromConfig(cfg)
		c.Dialer = mailxses.NewDialer(c.SESClient)
		logx.Infof("  ✅ SES mail transport configured (region: %s)", c.Config.Mail.AWSRegion)

	case "smtp":
		c.Dialer = mailxsmtp.NewDialer(c.Config.Mail.MaxConnections)
		logx.Infof("  ✅ SMTP mail transport configured (pool size: %d)", c.Config.Mail.MaxConnections)

	default:
		logx.Fatalf("Unknown MAIL_PROVIDER: %s (use 'smtp' or 'ses')", c.Config.Mail.Provider)
	}
}

// ---------------------------------------------------------------------------
// Module composition
// ---------------------------------------------------------------------------

func (c *Container) initModules() {
	logx.Info("📦 Initializing modules...")

	c.JobStore = bulkx.NewStore(c.Config.Bulk.HistoryLimit)

	engine := bulkx.NewEngine(c.JobStore, c.Dialer, c.FileSystem, c.Config.Bulk.SendInterval)
	c.BulkService = bulkx.NewService(c.JobStore, engine, c.Dialer, c.FileSystem, c.Config.Bulk.MaxRecipients)
	c.BulkHandlers = bulkx.NewHandlers(c.BulkService, c.FileSystem)
	c.UploadHandlers = recipx.NewHandlers()

	logx.Info("  ✅ Bulk dispatch module initialized")
}

// ---------------------------------------------------------------------------
// Lifecycle
// ---------------------------------------------------------------------------

// StartBackgroundServices launches the retention sweep that evicts
// terminal jobs older than the configured window.
func (c *Container) StartBackgroundServices() {
	if c.Config.Bulk.JobRetention <= 0 {
		logx.Info("🔄 Job retention sweep disabled")
		return
	}

	c.sweeper = cron.New()
	retention := c.Config.Bulk.JobRetention
	_, err := c.sweeper.AddFunc(c.Config.Bulk.SweepSchedule, func() {
		if removed := c.JobStore.SweepTerminal(retention); removed > 0 {
			logx.Infof("Retention sweep evicted %d terminal jobs", removed)
		}
	})
	if err != nil {
		logx.Fatalf("Invalid sweep schedule %q: %v", c.Config.Bulk.SweepSchedule, err)
	}
	c.sweeper.Start()

	logx.Infof("🔄 Job retention sweep started (%s, retention %s)",
		c.Config.Bulk.SweepSchedule, retention)
}

func (c *Container) Cleanup() {
	logx.Info("🧹 Cleaning up resources...")

	if c.sweeper != nil {
		ctx := c.sweeper.Stop()
		<-ctx.Done()
		logx.Info("  ✅ Retention sweep stopped")
	}

	logx.Info("✅ Cleanup complete")
}
