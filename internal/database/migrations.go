package database

// seq is the insertion counter: listings follow it, and cursors carry it.
const schema = `
CREATE TABLE IF NOT EXISTS images (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    id TEXT NOT NULL UNIQUE,
    title TEXT NOT NULL,
    description TEXT NOT NULL,
    url TEXT NOT NULL,
    ts INTEGER NOT NULL
);
`
