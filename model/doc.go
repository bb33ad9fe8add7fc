// Package model defines the core data types shared across finsight: the
// persisted entities (documents, text chunks, extracted tables, normalized
// rows, ingestion logs), the transient query-time types (evidence, answers,
// confidence tiers), and the page geometry types consumed by table detection.
package model
