/*
Package cinetl turns crawled movie, person and review observations into
relational tables ready for bulk loading.

The pipeline works in stages, each of which reads the output of earlier ones
from disk, so every stage can be rerun on its own:

1. Record Store

   The crawler writes line-delimited JSON into one directory per worker
   (data/raw/<worker>/movies_basic.jsonl and friends). The jsonl package
   discovers worker directories in sorted order and decodes each line into
   one of the typed records defined in this package. A line that is not a
   JSON object is skipped and counted, never fatal.

2. Entity Collector

   The collect package folds every observation of one entity kind into a
   single record per natural key. Scalar fields keep the first non-empty
   value in scan order; list fields are unioned.

3. Surrogate Key Assigner

   The keys package sorts natural keys (numerically for site ids, by name
   then year for festivals) and numbers them 1..n without gaps. The
   assignment is persisted as the id column of the entity tables and may
   also be mirrored into a KeyIndex (see the boltdb and leveldb packages).

4. Dictionary Resolver

   The dict package loads dictionaries and composite-key lookups from their
   persisted tables and resolves dependent records through them. A missing
   dictionary file is an empty dictionary.

5. Fact/Bridge Builder

   The facts package projects observations into bridge and fact rows that
   reference only surrogate keys, applying the dedupe and precedence rules
   for each table. Rows that reference unknown entities are dropped and
   counted per cause.

Seed scoring (package seed) runs over the same record store before the
person detail crawl and decides which persons are worth crawling in depth.

Once the tables are written, the load package copies them into Postgres
behind a schema with declared foreign keys, and the s3 package publishes
them to a bucket.

Every stage reports its work through an explicit Stats value rather than
global counters; the etl package wires stages together and the cmd package
exposes them on the command line.
*/
package cinetl
