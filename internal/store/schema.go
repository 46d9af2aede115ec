package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS battles (
    player_tag           TEXT NOT NULL,
    battle_key           TEXT NOT NULL,
    battle_time          TEXT NOT NULL,
    battle_unix          INTEGER NOT NULL,
    game_mode            TEXT,
    raw                  TEXT NOT NULL,
    fetched_at           TEXT NOT NULL,
    PRIMARY KEY (player_tag, battle_key)
);

CREATE TABLE IF NOT EXISTS players (
    tag                  TEXT PRIMARY KEY,
    name                 TEXT,
    trophies             INTEGER NOT NULL,
    best_trophies        INTEGER,
    exp_level            INTEGER,
    wins                 INTEGER,
    losses               INTEGER,
    arena_id             INTEGER,
    arena_name           TEXT,
    fetched_at           TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS file_tracker (
    file_path            TEXT PRIMARY KEY,
    mtime_ns             INTEGER NOT NULL,
    size_bytes           INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_battles_player_time ON battles(player_tag, battle_unix);
`
