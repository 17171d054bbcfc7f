package repos

import (
	"log"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"
)

func OpenDB(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}

	if err := ensureSchema(db); err != nil {
		return nil, err
	}
	// Seed baseline data if DB is empty (projects/licenses/articles)
	if err := seedIfEmpty(db); err != nil {
		return nil, err
	}
	// Ensure users and addresses exist (idempotent; safe to run every start)
	if err := seedUsers(db); err != nil {
		return nil, err
	}

	return db, nil
}

func ensureSchema(db *sqlx.DB) error {
	schema := `
PRAGMA foreign_keys = ON;

-- Projects (catalog items)
CREATE TABLE IF NOT EXISTS projects(
  id TEXT PRIMARY KEY,
  slug TEXT NOT NULL UNIQUE,
  title TEXT NOT NULL,
  description TEXT,
  type_category TEXT NOT NULL,
  type_title TEXT NOT NULL,
  license_title TEXT NOT NULL,
  status_project TEXT NOT NULL CHECK (status_project IN ('development','finished')),
  image_url TEXT,
  images_json TEXT,
  link_preview TEXT,
  author_name TEXT,
  author_role TEXT,
  author_photo_url TEXT,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_projects_category   ON projects(LOWER(type_category));
CREATE INDEX IF NOT EXISTS idx_projects_type       ON projects(LOWER(type_title));
CREATE INDEX IF NOT EXISTS idx_projects_created_at ON projects(created_at);

-- License variants per project
CREATE TABLE IF NOT EXISTS licenses(
  project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
  title TEXT NOT NULL,
  price INTEGER NOT NULL CHECK (price >= 0),
  download_url TEXT,
  stock INTEGER NOT NULL DEFAULT 0 CHECK (stock >= 0),
  sold INTEGER NOT NULL DEFAULT 0,
  delivery_days INTEGER NOT NULL DEFAULT 0,
  PRIMARY KEY(project_id, title)
);

-- Transactions (paid checkouts and free claims)
CREATE TABLE IF NOT EXISTS transactions(
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL UNIQUE,
  project_id TEXT NOT NULL REFERENCES projects(id),
  user_id TEXT NOT NULL,
  amount INTEGER NOT NULL CHECK (amount >= 0),
  project_title TEXT NOT NULL,
  license_type TEXT NOT NULL,
  delivery_method TEXT NOT NULL CHECK (delivery_method IN ('download','delivery')),
  image_url TEXT,
  download_url TEXT,
  user_email TEXT NOT NULL,
  user_name TEXT NOT NULL,
  user_photo_url TEXT,
  status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending','success','failure')),
  delivery_status TEXT,
  gateway_transaction_id TEXT,
  payment_details_json TEXT,
  delivery_address_json TEXT,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_transactions_user    ON transactions(user_id);
CREATE INDEX IF NOT EXISTS idx_transactions_status  ON transactions(status);
CREATE INDEX IF NOT EXISTS idx_transactions_created ON transactions(created_at);

-- Shipping addresses, at most one default per user
CREATE TABLE IF NOT EXISTS addresses(
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  full_name TEXT NOT NULL,
  phone TEXT NOT NULL,
  province TEXT NOT NULL,
  city TEXT NOT NULL,
  district TEXT NOT NULL,
  street_address TEXT NOT NULL,
  details TEXT,
  postal_code TEXT NOT NULL,
  is_default INTEGER NOT NULL DEFAULT 0,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_addresses_user ON addresses(user_id);

-- Social follow records gating free claims
CREATE TABLE IF NOT EXISTS social_follows(
  user_id TEXT NOT NULL,
  platform TEXT NOT NULL CHECK (platform IN ('tiktok','instagram')),
  followed_at TEXT DEFAULT CURRENT_TIMESTAMP,
  PRIMARY KEY(user_id, platform)
);

-- Articles
CREATE TABLE IF NOT EXISTS articles(
  id TEXT PRIMARY KEY,
  slug TEXT NOT NULL UNIQUE,
  title TEXT NOT NULL,
  excerpt TEXT,
  content TEXT,
  image_url TEXT,
  author TEXT,
  published INTEGER NOT NULL DEFAULT 1,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_articles_created ON articles(created_at);

-- Contact form messages
CREATE TABLE IF NOT EXISTS contact_messages(
  id TEXT PRIMARY KEY,
  full_name TEXT NOT NULL,
  email TEXT NOT NULL,
  subject TEXT,
  message TEXT NOT NULL,
  read INTEGER NOT NULL DEFAULT 0,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);

-- Users & Sessions
CREATE TABLE IF NOT EXISTS users(
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  photo_url TEXT,
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL CHECK (role IN ('USER','ADMIN')),
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(LOWER(email));

CREATE TABLE IF NOT EXISTS sessions(
  id TEXT PRIMARY KEY,               -- same value as the 'sid' cookie
  user_id TEXT NULL REFERENCES users(id) ON DELETE SET NULL,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  last_seen  TEXT
);
CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id);
`
	_, err := db.Exec(schema)
	return err
}

func seedIfEmpty(db *sqlx.DB) error {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM projects`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	log.Println("[seed] inserting demo projects/licenses/articles")

	tx := db.MustBegin()
	tx.MustExec(`INSERT INTO projects(id,slug,title,description,type_category,type_title,license_title,status_project,image_url,images_json,link_preview,author_name,author_role,author_photo_url) VALUES
	  ('prj-landing','company-landing-page','Company Landing Page','Marketing site template with CMS bindings','website','landing page','premium','finished','projects/prj-landing/main.jpg','["projects/prj-landing/1.jpg"]','https://demo.devstore.test/landing','Rizki','fullstack developer','avatars/rizki.jpg'),
	  ('prj-pos','cashier-pos-app','Cashier POS App','Point-of-sale desktop app with receipt printing','application','desktop','premium','finished','projects/prj-pos/main.jpg','["projects/prj-pos/1.jpg"]','https://demo.devstore.test/pos','Rizki','fullstack developer','avatars/rizki.jpg'),
	  ('prj-portfolio','simple-portfolio','Simple Portfolio','Single-page portfolio starter','website','portfolio','free','development','projects/prj-portfolio/main.jpg','[]','https://demo.devstore.test/portfolio','Ayu','frontend developer','avatars/ayu.jpg')`)

	tx.MustExec(`INSERT INTO licenses(project_id,title,price,download_url,stock,sold,delivery_days) VALUES
	  ('prj-landing','personal',150000,'downloads/prj-landing-personal.zip',25,4,3),
	  ('prj-landing','commercial',450000,'downloads/prj-landing-commercial.zip',10,1,3),
	  ('prj-pos','personal',250000,'downloads/prj-pos-personal.zip',15,7,5),
	  ('prj-portfolio','free',0,'downloads/prj-portfolio-free.zip',0,132,0)`)

	tx.MustExec(`INSERT INTO articles(id,slug,title,excerpt,content,image_url,author,published) VALUES
	  ('art-001','launching-the-marketplace','Launching the Marketplace','Why we built a license-based project store','<p>Long form content…</p>','articles/art-001.jpg','Rizki',1),
	  ('art-002','choosing-a-license','Choosing the Right License','Personal vs commercial licensing explained','<p>Long form content…</p>','articles/art-002.jpg','Ayu',1)`)

	return tx.Commit()
}

// seedUsers ensures demo USERs and one ADMIN exist, plus a default address
// for the first user (idempotent).
func seedUsers(db *sqlx.DB) error {
	type u struct {
		ID, Email, Name, Photo, Role, Hash string
	}
	mk := func(id, email, name, photo, role, raw string) u {
		h, _ := bcrypt.GenerateFromPassword([]byte(raw), 12)
		return u{ID: id, Email: email, Name: name, Photo: photo, Role: role, Hash: string(h)}
	}

	users := []u{
		mk("u-dina", "dina@devstore.test", "Dina", "avatars/dina.jpg", "USER", "Passw0rd!"),
		mk("u-bayu", "bayu@devstore.test", "Bayu", "", "USER", "Passw0rd!"),
		mk("u-admin", "admin@devstore.test", "Admin", "avatars/admin.jpg", "ADMIN", "Passw0rd!"),
	}

	tx := db.MustBegin()
	defer func() { _ = tx.Rollback() }()

	for _, x := range users {
		if _, err := tx.Exec(`
			INSERT INTO users(id,email,name,photo_url,password_hash,role)
			VALUES(?,?,?,?,?,?)
			ON CONFLICT(email) DO NOTHING
		`, x.ID, x.Email, x.Name, x.Photo, x.Hash, x.Role); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(`
		INSERT INTO addresses(id,user_id,full_name,phone,province,city,district,street_address,details,postal_code,is_default)
		SELECT 'addr-dina-1','u-dina','Dina Lestari','+6281234567890','Jawa Barat','Bandung','Coblong','Jl. Dago No. 12','Blue gate','40135',1
		WHERE NOT EXISTS (SELECT 1 FROM addresses WHERE id='addr-dina-1')
	`); err != nil {
		return err
	}

	return tx.Commit()
}
