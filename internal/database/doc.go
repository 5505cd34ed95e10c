/*
Package database keeps a SQLite history of the clips this server produced.

One row is written per successful clip job, keyed by output file name, so
the UI can show where a clip came from and which range was cut. The history
is informational: the job queue and search index never read it.

The connection uses WAL journaling and a busy timeout, matching how the
database is expected to live on a local volume next to the output directory.

	db, err := database.New(ctx, filepath.Join(cfg.DatabaseDir, "clips.db"))
	if err != nil {
	    return err
	}
	defer db.Close()

	err = db.RecordClip(ctx, database.ClipRecord{FileName: "scene.mp4", ...})

Every query records its count and duration in the media_clipper_db_* metrics.
*/
package database
