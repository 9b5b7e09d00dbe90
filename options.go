package embstore

const (
	// KeyIndexFileName is the key index database under the store root.
	KeyIndexFileName = "map.db"
	// ShardsDirName is the shard directory under the store root.
	ShardsDirName = "shards"
	// ManifestFileName is the shard manifest under the store root.
	ManifestFileName = "metadata.tsv"

	// DefaultShardCapacity is the default number of vectors per shard.
	DefaultShardCapacity = 1 << 17
)

type options struct {
	shardCapacity  int
	commitEverySet bool
	logger         *Logger
}

func defaultOptions() options {
	return options{
		shardCapacity: DefaultShardCapacity,
		logger:        NoopLogger(),
	}
}

// Option configures Writer, Reader and KNN constructors. Options that do
// not apply to a component are ignored by it.
type Option func(*options)

// WithShardCapacity sets the number of vectors per shard (Writer only).
func WithShardCapacity(n int) Option {
	return func(o *options) {
		o.shardCapacity = n
	}
}

// WithCommitEverySet commits the key-index batch on every Set instead of
// only at rollover and close (Writer only). Slower, but shrinks the
// key-index crash window to a single record.
func WithCommitEverySet() Option {
	return func(o *options) {
		o.commitEverySet = true
	}
}

// WithLogger sets the logger. If nil is passed, logging is disabled.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}
