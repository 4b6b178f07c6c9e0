// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/recallit/ingestion"
	"github.com/poiesic/recallit/storage"
)

func backfillCommand(c *cli.Context) error {
	kind, err := parseKind(c)
	if err != nil {
		return err
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	opts := []ingestion.Option{
		ingestion.WithPoolSize(c.Int("pool-size")),
		ingestion.WithRetry(c.Int("max-retries"), ingestion.DefaultRetryDelay),
	}
	if c.Bool("progress") {
		opts = append(opts, ingestion.WithProgress(os.Stderr))
	}
	pipeline, err := engine.NewPipeline(opts...)
	if err != nil {
		return err
	}
	defer pipeline.Release()

	report, err := pipeline.Backfill(c.Context, c.String("owner"), kind, c.Int("limit"))
	if err != nil {
		return err
	}
	return writeJSON(c, report)
}

func syncCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	syncer, err := engine.NewSyncer()
	if err != nil {
		return err
	}
	status := syncer.SyncAll(c.Context)
	if err := writeJSON(c, status); err != nil {
		return err
	}
	if !status.Success {
		return cli.Exit("sync completed with errors", 1)
	}
	return nil
}

func syncStatusCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	syncer, err := engine.NewSyncer()
	if err != nil {
		return err
	}
	status, err := syncer.Status(c.Context)
	if errors.Is(err, storage.ErrNotFound) {
		return writeJSON(c, map[string]string{"message": "No sync status available"})
	}
	if err != nil {
		return err
	}
	return writeJSON(c, status)
}

func profilesCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	service, err := engine.RefData()
	if err != nil {
		return err
	}
	useCache := !c.Bool("no-cache")

	switch {
	case c.String("id") != "":
		profile, err := service.GetProfile(c.Context, c.String("id"), useCache)
		if err != nil {
			return notFound(err, "profile", c.String("id"))
		}
		return writeJSON(c, profile)
	case c.String("user") != "":
		profile, err := service.GetProfileByUserID(c.Context, c.String("user"), useCache)
		if err != nil {
			return notFound(err, "profile for user", c.String("user"))
		}
		return writeJSON(c, profile)
	}

	profiles, err := service.ListProfiles(c.Context, useCache)
	if err != nil {
		return err
	}
	return writeJSON(c, profiles)
}

func websitesCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	service, err := engine.RefData()
	if err != nil {
		return err
	}
	useCache := !c.Bool("no-cache")

	if id := c.String("id"); id != "" {
		website, err := service.GetWebsite(c.Context, id, useCache)
		if err != nil {
			return notFound(err, "website", id)
		}
		return writeJSON(c, website)
	}

	websites, err := service.ListWebsites(c.Context, useCache)
	if err != nil {
		return err
	}
	return writeJSON(c, websites)
}

func healthCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	service, err := engine.RefData()
	if err == nil {
		err = service.HealthCheck(c.Context)
	}
	if err != nil {
		_ = writeJSON(c, map[string]string{"status": "unhealthy", "error": err.Error()})
		return cli.Exit("airtable health check failed", 1)
	}
	return writeJSON(c, map[string]string{"status": "healthy"})
}

func notFound(err error, what, id string) error {
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%s %s not found", what, id)
	}
	return err
}
